// Package sim is a deterministic in-memory market data provider for
// development and tests. Every data method is a stub path: it consults the
// guardrail gate first, so with FAIL_ON_STUB active the provider can never
// produce output that masquerades as real data.
package sim

import (
	"context"
	"math"
	"time"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/marketdata"
)

const (
	basePrice   = 100.0
	baseVolume  = 1000
	sessionBars = 390 // minutes in a regular session
)

func init() {
	marketdata.RegisterProvider("sim", func(name string, cfg *marketdata.ProviderConfig) (marketdata.Provider, error) {
		// Registry construction defaults to an enforcing gate; the service
		// context rebuilds the provider with the configured gate.
		return New(name, guardrail.NewGate(true)), nil
	})
}

// Provider generates synthetic but deterministic data per symbol.
type Provider struct {
	name string
	gate guardrail.Gate
}

// New constructs a sim provider guarded by the supplied gate.
func New(name string, gate guardrail.Gate) *Provider {
	if name == "" {
		name = "sim"
	}
	return &Provider{name: name, gate: gate}
}

// Name identifies the provider for provenance records. Results built on sim
// data must carry is_synthetic=true.
func (p *Provider) Name() string { return p.name }

// Preflight always succeeds; there is nothing to authenticate.
func (p *Provider) Preflight(ctx context.Context) (*marketdata.PreflightReport, error) {
	return &marketdata.PreflightReport{
		Provider:  p.name,
		Auth:      "n/a",
		RequestID: "sim",
		CheckedAt: time.Now().UTC(),
	}, nil
}

// seed derives a stable per-symbol offset so different symbols get
// different, reproducible prices.
func seed(symbol string) float64 {
	var h uint32
	for _, r := range symbol {
		h = h*31 + uint32(r)
	}
	return float64(h%500) / 10.0
}

// DailyOHLC returns a synthetic daily bar.
func (p *Provider) DailyOHLC(ctx context.Context, symbol string, date time.Time) (*marketdata.OHLCBar, error) {
	if err := p.gate.AssertNotStub("sim.DailyOHLC", "symbol", symbol); err != nil {
		return nil, err
	}
	open := basePrice + seed(symbol)
	return &marketdata.OHLCBar{
		Open:      open,
		High:      open + 10,
		Low:       open - 5,
		Close:     open + 5,
		Volume:    baseVolume * 100,
		Timestamp: time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
	}, nil
}

// IntradayBars returns a synthetic minute-bar session.
func (p *Provider) IntradayBars(ctx context.Context, symbol string, date time.Time) ([]marketdata.IntradayBar, error) {
	if err := p.gate.AssertNotStub("sim.IntradayBars", "symbol", symbol); err != nil {
		return nil, err
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 14, 30, 0, 0, time.UTC)
	price := basePrice + seed(symbol)
	bars := make([]marketdata.IntradayBar, 0, sessionBars)
	for i := 0; i < sessionBars; i++ {
		drift := math.Sin(float64(i)/30.0) * 2
		bars = append(bars, marketdata.IntradayBar{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      price + drift,
			High:      price + drift + 0.5,
			Low:       price + drift - 0.5,
			Close:     price + drift + 0.25,
			Volume:    int64(baseVolume + 10*(i%7)),
		})
	}
	return bars, nil
}

// Quote returns a synthetic NBBO with a fixed spread.
func (p *Provider) Quote(ctx context.Context, symbol string) (*marketdata.QuoteSnapshot, error) {
	if err := p.gate.AssertNotStub("sim.Quote", "symbol", symbol); err != nil {
		return nil, err
	}
	mid := basePrice + seed(symbol)
	return &marketdata.QuoteSnapshot{
		Symbol:    symbol,
		Timestamp: time.Now().UTC(),
		Bid:       mid - 0.05,
		Ask:       mid + 0.05,
	}, nil
}

// TimeSales returns a synthetic trade/quote tape, one print per second.
func (p *Provider) TimeSales(ctx context.Context, symbol string, from, to time.Time) (*marketdata.Tape, error) {
	if err := p.gate.AssertNotStub("sim.TimeSales", "symbol", symbol); err != nil {
		return nil, err
	}
	tape := &marketdata.Tape{}
	mid := basePrice + seed(symbol)
	for ts := from; !ts.After(to); ts = ts.Add(time.Second) {
		i := int(ts.Unix() % 5)
		tape.Quotes = append(tape.Quotes, marketdata.QuoteSnapshot{
			Symbol:    symbol,
			Timestamp: ts,
			Bid:       mid - 0.05,
			Ask:       mid + 0.05,
		})
		tape.Trades = append(tape.Trades, marketdata.Trade{
			Symbol:    symbol,
			Timestamp: ts.Add(100 * time.Millisecond),
			Price:     mid + 0.05*float64(i-2)/2.0,
			Size:      int64(100 + 50*i),
		})
	}
	return tape, nil
}

// OptionsChain returns a synthetic put/call summary.
func (p *Provider) OptionsChain(ctx context.Context, symbol string) (*marketdata.OptionFlow, error) {
	if err := p.gate.AssertNotStub("sim.OptionsChain", "symbol", symbol); err != nil {
		return nil, err
	}
	return &marketdata.OptionFlow{
		Symbol:     symbol,
		AsOf:       time.Now().UTC(),
		PutVolume:  200,
		CallVolume: 200,
		PutOI:      1200,
		CallOI:     1900,
	}, nil
}

// IVSeries returns a synthetic oscillating IV history.
func (p *Provider) IVSeries(ctx context.Context, symbol string, lookback int) ([]marketdata.IVPoint, error) {
	if err := p.gate.AssertNotStub("sim.IVSeries", "symbol", symbol); err != nil {
		return nil, err
	}
	if lookback <= 0 {
		lookback = 30
	}
	now := time.Now().UTC()
	points := make([]marketdata.IVPoint, 0, lookback)
	for i := 0; i < lookback; i++ {
		points = append(points, marketdata.IVPoint{
			Timestamp: now.AddDate(0, 0, i-lookback),
			IV:        0.20 + 0.02*float64(i%10)/10.0,
		})
	}
	return points, nil
}
