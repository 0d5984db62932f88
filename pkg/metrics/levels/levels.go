// Package levels computes classic floor-trader pivot levels from the prior
// session's daily OHLC and a true volume-weighted average price from the
// current session's minute bars. All functions are pure over supplied data.
package levels

import (
	"time"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/marketdata"
)

// VWAP method labels recorded in result quality and provenance.
const (
	VWAPMethodIntraday    = "intraday_true"
	VWAPMethodUnavailable = "unavailable"
)

// PivotLevels holds the classic pivot point with first resistance/support.
type PivotLevels struct {
	Pivot float64
	R1    float64
	S1    float64
}

// Quality describes how the result was computed.
type Quality struct {
	VWAPMethod string `json:"vwap_method"`
	DataLagMs  *int64 `json:"data_lag_ms,omitempty"`
}

// Result is the levels output for one (symbol, date) request. Immutable
// once produced.
type Result struct {
	Symbol     string               `json:"symbol"`
	Date       time.Time            `json:"date"`
	Pivot      float64              `json:"pivot"`
	R1         float64              `json:"r1"`
	S1         float64              `json:"s1"`
	VWAP       *float64             `json:"vwap"` // nil when intraday bars unavailable
	Quality    Quality              `json:"quality"`
	Provenance guardrail.Provenance `json:"provenance"`
}

// ComputePivotLevels derives pivot, R1 and S1 from a daily bar.
// pivot = (H+L+C)/3, R1 = 2*pivot - L, S1 = 2*pivot - H.
func ComputePivotLevels(bar marketdata.OHLCBar) (PivotLevels, error) {
	if err := guardrail.Require(bar.Low >= 0 && bar.High >= bar.Low,
		guardrail.CodeValidation, "pivot input requires H >= L >= 0",
		"high", bar.High, "low", bar.Low); err != nil {
		return PivotLevels{}, err
	}
	if err := guardrail.Require(bar.Close >= bar.Low && bar.Close <= bar.High,
		guardrail.CodeValidation, "pivot input requires close within [L, H]",
		"close", bar.Close, "high", bar.High, "low", bar.Low); err != nil {
		return PivotLevels{}, err
	}

	pivot := (bar.High + bar.Low + bar.Close) / 3.0
	return PivotLevels{
		Pivot: pivot,
		R1:    2*pivot - bar.Low,
		S1:    2*pivot - bar.High,
	}, nil
}

// ComputeSessionVWAP returns sum(close*volume)/sum(volume) over the supplied
// session bars, or nil when the sequence is empty or carries zero volume.
// The nil outcome is a designed degenerate case, not an error: it must
// surface as vwap_method "unavailable", never as zero.
func ComputeSessionVWAP(bars []marketdata.IntradayBar) *float64 {
	if len(bars) == 0 {
		return nil
	}
	var notional float64
	var volume int64
	for _, bar := range bars {
		notional += bar.Close * float64(bar.Volume)
		volume += bar.Volume
	}
	if volume == 0 {
		return nil
	}
	vwap := notional / float64(volume)
	return &vwap
}
