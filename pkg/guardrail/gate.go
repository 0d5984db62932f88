package guardrail

import (
	"os"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// Gate is the production-safety checkpoint. Every code path capable of
// producing placeholder or synthetic data calls AssertNotStub before doing
// any work. The enforcement flag is fixed at construction time; the gate
// never reads the environment after that.
type Gate struct {
	failOnStub bool
}

// NewGate constructs a gate. failOnStub=true is production mode: stub paths
// are blocked outright.
func NewGate(failOnStub bool) Gate {
	return Gate{failOnStub: failOnStub}
}

// GateFromEnv builds a gate from the FAIL_ON_STUB environment variable,
// defaulting to enforcing when unset. Intended for process start only.
func GateFromEnv() Gate {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("FAIL_ON_STUB")))
	switch raw {
	case "0", "false", "no", "off":
		return NewGate(false)
	default:
		return NewGate(true)
	}
}

// Enforcing reports whether stub paths are blocked.
func (g Gate) Enforcing() bool { return g.failOnStub }

// Mode returns a human readable mode name for logs and health reports.
func (g Gate) Mode() string {
	if g.failOnStub {
		return "production"
	}
	return "development"
}

// AssertNotStub blocks execution of a stub code path. In production mode it
// returns a fatal E-STUB-PATH error and the stub body must not run. In
// development mode it logs a warning and permits execution.
func (g Gate) AssertNotStub(pathName string, kv ...any) error {
	if g.failOnStub {
		return NewError(CodeStubPath, "stub code path is disabled in this environment",
			append([]any{"path", pathName}, kv...)...)
	}
	logx.Infow("stub execution allowed (development mode)",
		logx.Field("path", pathName), logx.Field("fail_on_stub", false))
	return nil
}

// Provenance asserts whether a result derives from real or synthetic data
// and records how it was calculated. Immutable once built.
type Provenance struct {
	DataSource    string  `json:"data_source"`
	IsSynthetic   bool    `json:"is_synthetic"`
	VWAPMethod    string  `json:"vwap_method,omitempty"`
	Timestamp     string  `json:"timestamp"`
	RequestID     string  `json:"provider_request_id,omitempty"`
	SourceSession string  `json:"source_session,omitempty"`
	DataLagMs     *int64  `json:"data_lag_ms,omitempty"`
}

// ProvenanceOption customises optional provenance fields.
type ProvenanceOption func(*Provenance)

// WithRequestID records the provider request id.
func WithRequestID(id string) ProvenanceOption {
	return func(p *Provenance) { p.RequestID = id }
}

// WithSourceSession records the trading session the data came from.
func WithSourceSession(session string) ProvenanceOption {
	return func(p *Provenance) { p.SourceSession = session }
}

// WithVWAPMethod records how (or whether) VWAP was computed.
func WithVWAPMethod(method string) ProvenanceOption {
	return func(p *Provenance) { p.VWAPMethod = method }
}

// WithDataLag records the observed provider latency.
func WithDataLag(ms int64) ProvenanceOption {
	return func(p *Provenance) { p.DataLagMs = &ms }
}

// BuildProvenance returns a provenance record. The gate does not verify
// isSynthetic; callers reaching this point through real provider data are
// contractually obligated to pass false. Blocking stub code paths is the
// actual enforcement point.
func BuildProvenance(source string, isSynthetic bool, opts ...ProvenanceOption) Provenance {
	p := Provenance{
		DataSource:  source,
		IsSynthetic: isSynthetic,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
