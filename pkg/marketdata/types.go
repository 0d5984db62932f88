package marketdata

import (
	"time"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
)

// OHLCBar is one daily trading session produced by a provider. Immutable
// once returned.
type OHLCBar struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Timestamp time.Time // UTC
}

// IntradayBar is one minute bar inside a session window.
type IntradayBar struct {
	Timestamp time.Time // UTC
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Trade is a raw execution print.
type Trade struct {
	Symbol    string
	Timestamp time.Time // UTC
	Price     float64
	Size      int64
}

// QuoteSnapshot is a point-in-time national best bid/offer.
type QuoteSnapshot struct {
	Symbol    string
	Timestamp time.Time // UTC
	Bid       float64
	Ask       float64
}

// Tape bundles the trades and quotes for one time & sales request. Both
// sequences are ascending by timestamp.
type Tape struct {
	Trades []Trade
	Quotes []QuoteSnapshot
}

// OptionFlow summarises an options-chain snapshot for ratio metrics.
type OptionFlow struct {
	Symbol     string
	AsOf       time.Time
	PutVolume  int64
	CallVolume int64
	PutOI      int64
	CallOI     int64
}

// IVPoint is one implied-volatility observation in a historical series.
type IVPoint struct {
	Timestamp time.Time
	IV        float64
}

// ValidateBar rejects bars violating the OHLC invariants before any metric
// consumes them.
func ValidateBar(bar OHLCBar) error {
	if err := guardrail.Require(bar.High >= bar.Open && bar.High >= bar.Close && bar.High >= bar.Low,
		guardrail.CodeValidation, "bar high below open/close/low",
		"high", bar.High, "open", bar.Open, "low", bar.Low, "close", bar.Close); err != nil {
		return err
	}
	if err := guardrail.Require(bar.Low <= bar.Open && bar.Low <= bar.Close,
		guardrail.CodeValidation, "bar low above open/close",
		"low", bar.Low, "open", bar.Open, "close", bar.Close); err != nil {
		return err
	}
	if err := guardrail.Require(bar.Low > 0,
		guardrail.CodeValidation, "bar prices must be positive", "low", bar.Low); err != nil {
		return err
	}
	return guardrail.Require(bar.Volume >= 0,
		guardrail.CodeValidation, "bar volume must be non-negative", "volume", bar.Volume)
}

// ValidateQuote rejects crossed or non-positive quotes.
func ValidateQuote(q QuoteSnapshot) error {
	if err := guardrail.Require(q.Bid > 0,
		guardrail.CodeValidation, "quote bid must be positive", "bid", q.Bid); err != nil {
		return err
	}
	return guardrail.Require(q.Ask >= q.Bid,
		guardrail.CodeValidation, "quote ask below bid", "bid", q.Bid, "ask", q.Ask)
}
