// Package healthcheck probes the configured market data providers and the
// IV history store, and reports auth and connectivity status before any
// data command runs.
package healthcheck

import (
	"context"
	"sort"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/RobbyMo81/trade-analyst/internal/ivstore"
	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/marketdata"
)

// DefaultTimeout bounds each individual check.
const DefaultTimeout = 5 * time.Second

// probeSymbol is only read, never written, so the store check is safe to
// run against production data.
const probeSymbol = "SPY"

// Params enumerates what gets checked.
type Params struct {
	Gate      guardrail.Gate
	Providers map[string]marketdata.Provider
	Store     ivstore.Store
	Timeout   time.Duration
}

// Check is the outcome of one probe.
type Check struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Report aggregates all checks.
type Report struct {
	Healthy       bool      `json:"healthy"`
	GuardrailMode string    `json:"guardrail_mode"`
	Checks        []Check   `json:"checks"`
	CheckedAt     time.Time `json:"checked_at"`
}

// Run executes every check in deterministic order. The report is healthy
// only when all of them pass.
func Run(ctx context.Context, p Params) *Report {
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}

	report := &Report{
		Healthy:       true,
		GuardrailMode: p.Gate.Mode(),
		CheckedAt:     time.Now().UTC(),
	}

	names := make([]string, 0, len(p.Providers))
	for name := range p.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		report.add(checkProvider(ctx, name, p.Providers[name], p.Timeout))
	}

	if p.Store != nil {
		report.add(checkStore(ctx, p.Store, p.Timeout))
	}

	return report
}

func (r *Report) add(c Check) {
	if !c.OK {
		r.Healthy = false
	}
	r.Checks = append(r.Checks, c)
}

func checkProvider(parent context.Context, name string, provider marketdata.Provider, timeout time.Duration) Check {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	pf, err := provider.Preflight(ctx)
	elapsed := time.Since(start).Milliseconds()

	checkName := "provider:" + name
	if err != nil {
		logx.WithContext(ctx).Errorw("preflight failed",
			logx.Field("provider", name),
			logx.Field("error", err.Error()),
			logx.Field("latency_ms", elapsed))
		return Check{Name: checkName, OK: false, Detail: err.Error(), LatencyMs: elapsed}
	}

	logx.WithContext(ctx).Infow("preflight ok",
		logx.Field("provider", name),
		logx.Field("auth", pf.Auth),
		logx.Field("latency_ms", elapsed))
	return Check{Name: checkName, OK: true, Detail: pf.Auth, LatencyMs: elapsed}
}

func checkStore(parent context.Context, store ivstore.Store, timeout time.Duration) Check {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	_, err := store.History(ctx, probeSymbol, 1)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		logx.WithContext(ctx).Errorw("iv store unreachable",
			logx.Field("error", err.Error()),
			logx.Field("latency_ms", elapsed))
		return Check{Name: "ivstore", OK: false, Detail: err.Error(), LatencyMs: elapsed}
	}
	return Check{Name: "ivstore", OK: true, LatencyMs: elapsed}
}
