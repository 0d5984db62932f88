// Package export renders computed results for downstream consumers: an
// ai-block text format, levels.v1 JSON, CSV, and Parquet. Every export
// passes through the guardrail provenance check before a byte is written.
package export

import (
	"fmt"
	"strings"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/metrics/levels"
)

// SchemaVersion tags the machine-readable levels output.
const SchemaVersion = "levels.v1"

// LevelsDocument is the levels.v1 export shape.
type LevelsDocument struct {
	SchemaVersion string               `json:"schema_version"`
	Symbol        string               `json:"symbol"`
	Date          string               `json:"date"`
	Levels        LevelsBlock          `json:"levels"`
	Quality       levels.Quality       `json:"quality"`
	Provenance    guardrail.Provenance `json:"provenance"`
}

// LevelsBlock holds the numeric levels. VWAP is null when unavailable.
type LevelsBlock struct {
	Pivot float64  `json:"pivot"`
	R1    float64  `json:"r1"`
	S1    float64  `json:"s1"`
	VWAP  *float64 `json:"vwap"`
}

// NewLevelsDocument converts a levels result into its export shape.
func NewLevelsDocument(res *levels.Result) *LevelsDocument {
	return &LevelsDocument{
		SchemaVersion: SchemaVersion,
		Symbol:        res.Symbol,
		Date:          res.Date.Format("2006-01-02"),
		Levels: LevelsBlock{
			Pivot: res.Pivot,
			R1:    res.R1,
			S1:    res.S1,
			VWAP:  res.VWAP,
		},
		Quality:    res.Quality,
		Provenance: res.Provenance,
	}
}

// levelsRow is the flat record used by the CSV and Parquet writers.
type levelsRow struct {
	Symbol      string   `json:"symbol" parquet:"symbol"`
	Date        string   `json:"date" parquet:"date"`
	Pivot       float64  `json:"pivot" parquet:"pivot"`
	R1          float64  `json:"r1" parquet:"r1"`
	S1          float64  `json:"s1" parquet:"s1"`
	VWAP        *float64 `json:"vwap,omitempty" parquet:"vwap,optional"`
	VWAPMethod  string   `json:"vwap_method" parquet:"vwap_method"`
	DataSource  string   `json:"data_source" parquet:"data_source"`
	IsSynthetic bool     `json:"is_synthetic" parquet:"is_synthetic"`
}

func (d *LevelsDocument) row() levelsRow {
	return levelsRow{
		Symbol:      d.Symbol,
		Date:        d.Date,
		Pivot:       d.Levels.Pivot,
		R1:          d.Levels.R1,
		S1:          d.Levels.S1,
		VWAP:        d.Levels.VWAP,
		VWAPMethod:  d.Quality.VWAPMethod,
		DataSource:  d.Provenance.DataSource,
		IsSynthetic: d.Provenance.IsSynthetic,
	}
}

// Writer renders a levels document to a file. An empty path selects the
// writer's default stream where one exists (ai-block only).
type Writer interface {
	Write(doc *LevelsDocument, path string) error
	Extension() string
}

// NewWriter returns the writer for a format, or nil when unsupported.
func NewWriter(format string) Writer {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "ai-block":
		return &AIBlockWriter{}
	case "json":
		return JSONWriter{}
	case "csv":
		return CSVWriter{}
	case "parquet":
		return ParquetWriter{}
	default:
		return nil
	}
}

// MustWriter is NewWriter that panics on an unsupported format.
func MustWriter(format string) Writer {
	w := NewWriter(format)
	if w == nil {
		panic(fmt.Sprintf("export: unsupported format %q (use: ai-block, json, csv, parquet)", format))
	}
	return w
}
