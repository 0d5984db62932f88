package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// AIBlockWriter renders the bracketed text block consumed by downstream
// automation. Provenance goes to a separate stream so the data block stays
// machine-parseable.
type AIBlockWriter struct {
	// Out/Err default to stdout/stderr.
	Out io.Writer
	Err io.Writer
}

func (w *AIBlockWriter) Extension() string { return "txt" }

func (w *AIBlockWriter) Write(doc *LevelsDocument, path string) error {
	out, errOut := w.Out, w.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	vwap := "N/A"
	if doc.Levels.VWAP != nil {
		vwap = strconv.FormatFloat(*doc.Levels.VWAP, 'f', 4, 64)
	}
	fmt.Fprintln(out, "[AI_DATA_BLOCK_START]")
	fmt.Fprintf(out, "symbol: %s\n", doc.Symbol)
	fmt.Fprintf(out, "date: %s\n", doc.Date)
	fmt.Fprintf(out, "R1: %.4f\n", doc.Levels.R1)
	fmt.Fprintf(out, "S1: %.4f\n", doc.Levels.S1)
	fmt.Fprintf(out, "VWAP: %s\n", vwap)
	fmt.Fprintf(out, "pivot: %.4f\n", doc.Levels.Pivot)
	fmt.Fprintln(out, "[AI_DATA_BLOCK_END]")

	fmt.Fprintf(errOut, "PROVENANCE data_source=%s is_synthetic=%t vwap_method=%s timestamp=%s\n",
		doc.Provenance.DataSource, doc.Provenance.IsSynthetic,
		orNA(doc.Quality.VWAPMethod), doc.Provenance.Timestamp)
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// JSONWriter emits the levels.v1 document.
type JSONWriter struct{}

func (JSONWriter) Extension() string { return "json" }

func (JSONWriter) Write(doc *LevelsDocument, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// CSVWriter emits a single flat record with a header row.
type CSVWriter struct{}

func (CSVWriter) Extension() string { return "csv" }

func (CSVWriter) Write(doc *LevelsDocument, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	row := doc.row()
	vwap := ""
	if row.VWAP != nil {
		vwap = strconv.FormatFloat(*row.VWAP, 'f', 6, 64)
	}
	w := csv.NewWriter(f)
	records := [][]string{
		{"symbol", "date", "pivot", "r1", "s1", "vwap", "vwap_method", "data_source", "is_synthetic"},
		{
			row.Symbol,
			row.Date,
			strconv.FormatFloat(row.Pivot, 'f', 6, 64),
			strconv.FormatFloat(row.R1, 'f', 6, 64),
			strconv.FormatFloat(row.S1, 'f', 6, 64),
			vwap,
			row.VWAPMethod,
			row.DataSource,
			strconv.FormatBool(row.IsSynthetic),
		},
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// ParquetWriter emits the flat record as a one-row parquet file.
type ParquetWriter struct{}

func (ParquetWriter) Extension() string { return "parquet" }

func (ParquetWriter) Write(doc *LevelsDocument, path string) error {
	return parquet.WriteFile(path, []levelsRow{doc.row()})
}
