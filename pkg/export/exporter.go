package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
)

// Metadata is the sidecar written next to every file export for audit.
type Metadata struct {
	File          string               `json:"file"`
	SchemaVersion string               `json:"schema_version"`
	SHA256        string               `json:"sha256"`
	SizeBytes     int64                `json:"size_bytes"`
	WrittenAt     time.Time            `json:"written_at"`
	Provenance    guardrail.Provenance `json:"provenance"`
}

// Exporter wraps a format writer with the guardrail provenance check and
// the metadata sidecar.
type Exporter struct {
	gate   guardrail.Gate
	writer Writer
	dir    string
	nowFn  func() time.Time
}

// NewExporter builds an exporter for the format. dir is the output
// directory for file formats; ignored by ai-block with no path.
func NewExporter(gate guardrail.Gate, format, dir string) (*Exporter, error) {
	w := NewWriter(format)
	if w == nil {
		return nil, guardrail.NewError(guardrail.CodeFormat, "unsupported export format",
			"format", format)
	}
	return &Exporter{gate: gate, writer: w, dir: dir, nowFn: time.Now}, nil
}

// Export writes the document. When guardrails are enforcing, a synthetic
// provenance flag aborts the export: a successful result backed by stub
// data must never leave the process looking legitimate.
func (e *Exporter) Export(doc *LevelsDocument) (string, error) {
	if doc == nil {
		return "", guardrail.NewError(guardrail.CodeSchema, "nil levels document")
	}
	if doc.Provenance.IsSynthetic {
		if err := e.gate.AssertNotStub("export.levels", "symbol", doc.Symbol); err != nil {
			return "", err
		}
	}

	if _, ok := e.writer.(*AIBlockWriter); ok && e.dir == "" {
		return "", e.writer.Write(doc, "")
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := fmt.Sprintf("levels_%s_%s.%s", doc.Symbol, doc.Date, e.writer.Extension())
	path := filepath.Join(e.dir, name)
	if err := e.writer.Write(doc, path); err != nil {
		return "", err
	}
	if err := e.writeMetadata(doc, path); err != nil {
		return "", err
	}
	logx.Infow("export written", logx.Field("path", path), logx.Field("format", e.writer.Extension()))
	return path, nil
}

func (e *Exporter) writeMetadata(doc *LevelsDocument, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("hash export: %w", err)
	}
	sum := sha256.Sum256(data)
	meta := Metadata{
		File:          filepath.Base(path),
		SchemaVersion: doc.SchemaVersion,
		SHA256:        hex.EncodeToString(sum[:]),
		SizeBytes:     int64(len(data)),
		WrittenAt:     e.nowFn().UTC(),
		Provenance:    doc.Provenance,
	}
	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path+".meta.json", payload, 0o644)
}
