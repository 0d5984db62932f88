// Package optionflow computes put/call ratios from an options-chain
// snapshot.
package optionflow

import (
	"math"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/marketdata"
)

// Ratio is a put/call ratio outcome. Exporters need to distinguish three
// states: a finite value, the infinite sentinel (puts with zero calls), and
// undefined (both sides zero).
type Ratio struct {
	Value    *float64
	Infinite bool
}

// Defined reports whether the ratio carries any signal.
func (r Ratio) Defined() bool { return r.Value != nil || r.Infinite }

// Float returns the ratio as a float64, mapping the infinite sentinel to
// +Inf and undefined to NaN.
func (r Ratio) Float() float64 {
	switch {
	case r.Infinite:
		return math.Inf(1)
	case r.Value != nil:
		return *r.Value
	default:
		return math.NaN()
	}
}

// PutCallVolumeRatio returns puts/calls traded volume. Both sides zero is
// undefined (no signal). Puts with zero calls is mathematically undefined
// but informative: the infinite sentinel is returned with a validation
// warning rather than an error.
func PutCallVolumeRatio(flow marketdata.OptionFlow) (Ratio, error) {
	return ratio(flow.PutVolume, flow.CallVolume, "volume", flow.Symbol)
}

// PutCallOIRatio returns puts/calls open interest under the same policy.
func PutCallOIRatio(flow marketdata.OptionFlow) (Ratio, error) {
	return ratio(flow.PutOI, flow.CallOI, "open_interest", flow.Symbol)
}

func ratio(puts, calls int64, field, symbol string) (Ratio, error) {
	if err := guardrail.Require(puts >= 0 && calls >= 0,
		guardrail.CodeValidation, "put/call inputs must be non-negative",
		"field", field, "puts", puts, "calls", calls); err != nil {
		return Ratio{}, err
	}
	if puts == 0 && calls == 0 {
		return Ratio{}, nil
	}
	if calls == 0 {
		logx.Infow("put/call ratio undefined: zero call side",
			logx.Field("symbol", symbol), logx.Field("field", field), logx.Field("puts", puts))
		return Ratio{Infinite: true}, nil
	}
	v := float64(puts) / float64(calls)
	return Ratio{Value: &v}, nil
}
