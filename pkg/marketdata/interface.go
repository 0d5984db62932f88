package marketdata

import (
	"context"
	"time"
)

// Provider exposes brokerage market data, normalized to UTC timestamps.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name identifies the provider for provenance records.
	Name() string
	// Preflight validates auth and connectivity before any data request.
	Preflight(ctx context.Context) (*PreflightReport, error)
	// DailyOHLC returns the most recent completed daily bar at or before date.
	DailyOHLC(ctx context.Context, symbol string, date time.Time) (*OHLCBar, error)
	// IntradayBars returns the minute bars for the session containing date.
	IntradayBars(ctx context.Context, symbol string, date time.Time) ([]IntradayBar, error)
	// Quote returns the latest NBBO snapshot.
	Quote(ctx context.Context, symbol string) (*QuoteSnapshot, error)
	// TimeSales returns trades and quotes for the window, each ascending by time.
	TimeSales(ctx context.Context, symbol string, from, to time.Time) (*Tape, error)
	// OptionsChain returns the put/call volume and open-interest summary.
	OptionsChain(ctx context.Context, symbol string) (*OptionFlow, error)
	// IVSeries returns up to lookback implied-volatility observations,
	// oldest first.
	IVSeries(ctx context.Context, symbol string, lookback int) ([]IVPoint, error)
}

// PreflightReport summarises a provider pre-flight check.
type PreflightReport struct {
	Provider  string    `json:"provider"`
	Auth      string    `json:"auth"`
	RequestID string    `json:"request_id"`
	CheckedAt time.Time `json:"checked_at"`
}
