package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/metrics/levels"
)

func sampleDoc(synthetic bool) *LevelsDocument {
	vwap := 20012.5
	return NewLevelsDocument(&levels.Result{
		Symbol: "NQ",
		Date:   time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Pivot:  103.3333,
		R1:     111.6667,
		S1:     96.6667,
		VWAP:   &vwap,
		Quality: levels.Quality{
			VWAPMethod: levels.VWAPMethodIntraday,
		},
		Provenance: guardrail.BuildProvenance("schwab", synthetic,
			guardrail.WithVWAPMethod(levels.VWAPMethodIntraday)),
	})
}

func TestAIBlockWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	w := &AIBlockWriter{Out: &out, Err: &errOut}
	require.NoError(t, w.Write(sampleDoc(false), ""))

	text := out.String()
	require.Contains(t, text, "[AI_DATA_BLOCK_START]")
	require.Contains(t, text, "R1: 111.6667")
	require.Contains(t, text, "S1: 96.6667")
	require.Contains(t, text, "VWAP: 20012.5000")
	require.Contains(t, text, "[AI_DATA_BLOCK_END]")

	require.Contains(t, errOut.String(), "PROVENANCE data_source=schwab is_synthetic=false")
}

func TestAIBlockWriterNilVWAP(t *testing.T) {
	doc := sampleDoc(false)
	doc.Levels.VWAP = nil
	doc.Quality.VWAPMethod = levels.VWAPMethodUnavailable

	var out, errOut bytes.Buffer
	w := &AIBlockWriter{Out: &out, Err: &errOut}
	require.NoError(t, w.Write(doc, ""))
	require.Contains(t, out.String(), "VWAP: N/A")
	require.Contains(t, errOut.String(), "vwap_method=unavailable")
}

func TestJSONWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.json")
	require.NoError(t, JSONWriter{}.Write(sampleDoc(false), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc LevelsDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, SchemaVersion, doc.SchemaVersion)
	require.Equal(t, "NQ", doc.Symbol)
	require.NotNil(t, doc.Levels.VWAP)
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.csv")
	require.NoError(t, CSVWriter{}.Write(sampleDoc(false), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "symbol", records[0][0])
	require.Equal(t, "NQ", records[1][0])
	require.Equal(t, "intraday_true", records[1][6])
}

func TestParquetWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.parquet")
	require.NoError(t, ParquetWriter{}.Write(sampleDoc(false), path))

	rows, err := parquet.ReadFile[levelsRow](path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "NQ", rows[0].Symbol)
	require.NotNil(t, rows[0].VWAP)
}

func TestNewWriterUnsupported(t *testing.T) {
	require.Nil(t, NewWriter("xml"))
	require.Panics(t, func() { MustWriter("xml") })
}

func TestExporterWritesMetadataSidecar(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(guardrail.NewGate(true), "json", dir)
	require.NoError(t, err)

	path, err := e.Export(sampleDoc(false))
	require.NoError(t, err)

	meta, err := os.ReadFile(path + ".meta.json")
	require.NoError(t, err)
	var m Metadata
	require.NoError(t, json.Unmarshal(meta, &m))
	require.Equal(t, filepath.Base(path), m.File)
	require.Len(t, m.SHA256, 64)
	require.Positive(t, m.SizeBytes)
}

func TestExporterBlocksSyntheticUnderGuardrails(t *testing.T) {
	e, err := NewExporter(guardrail.NewGate(true), "json", t.TempDir())
	require.NoError(t, err)

	_, err = e.Export(sampleDoc(true))
	require.Error(t, err)
	require.Equal(t, guardrail.CodeStubPath, guardrail.CodeOf(err))
}

func TestExporterAllowsSyntheticInDevelopment(t *testing.T) {
	e, err := NewExporter(guardrail.NewGate(false), "json", t.TempDir())
	require.NoError(t, err)

	path, err := e.Export(sampleDoc(true))
	require.NoError(t, err)
	require.FileExists(t, path)
}

func TestExporterRejectsUnknownFormat(t *testing.T) {
	_, err := NewExporter(guardrail.NewGate(true), "xml", t.TempDir())
	require.Error(t, err)
	require.Equal(t, guardrail.CodeFormat, guardrail.CodeOf(err))
}
