package schwab

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/marketdata"
)

func init() {
	marketdata.RegisterProvider("schwab", func(name string, cfg *marketdata.ProviderConfig) (marketdata.Provider, error) {
		return NewProvider(name, cfg)
	})
}

// Provider implements marketdata.Provider against the Schwab API.
type Provider struct {
	name      string
	client    *Client
	auth      *AuthManager
	requestID string
}

// NewProvider builds a provider from registry configuration.
func NewProvider(name string, cfg *marketdata.ProviderConfig) (*Provider, error) {
	auth, err := NewAuthManager(cfg.AuthBaseURL, cfg.ClientID, cfg.RedirectURI, cfg.TokenPath)
	if err != nil {
		return nil, err
	}

	opts := []Option{}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	return &Provider{
		name:      name,
		client:    NewClient(auth, opts...),
		auth:      auth,
		requestID: uuid.NewString(),
	}, nil
}

// Name identifies the provider for provenance records.
func (p *Provider) Name() string { return p.name }

// RequestID is the per-run identifier threaded into provenance.
func (p *Provider) RequestID() string { return p.requestID }

// Auth exposes the auth manager for the login command.
func (p *Provider) Auth() *AuthManager { return p.auth }

// Preflight validates that a usable token exists before data requests run.
func (p *Provider) Preflight(ctx context.Context) (*marketdata.PreflightReport, error) {
	if _, err := p.auth.AccessToken(ctx); err != nil {
		return nil, err
	}
	return &marketdata.PreflightReport{
		Provider:  p.name,
		Auth:      "ok",
		RequestID: p.requestID,
		CheckedAt: time.Now().UTC(),
	}, nil
}

// DailyOHLC returns the most recent completed daily bar at or before date.
func (p *Provider) DailyOHLC(ctx context.Context, symbol string, date time.Time) (*marketdata.OHLCBar, error) {
	symbol = normalizeSymbol(symbol)
	// Reach back over weekends and holidays.
	start := date.AddDate(0, 0, -7)
	resp, err := p.client.PriceHistory(ctx, symbol, "daily", start, date)
	if err != nil {
		return nil, err
	}
	if resp.Empty || len(resp.Candles) == 0 {
		return nil, guardrail.NewError(guardrail.CodeNoDataDaily, "no daily OHLC",
			"symbol", symbol, "date", date.Format("2006-01-02"), "request_id", p.requestID)
	}
	c := resp.Candles[len(resp.Candles)-1]
	bar := marketdata.OHLCBar{
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
		Timestamp: time.UnixMilli(c.Datetime).UTC(),
	}
	if err := marketdata.ValidateBar(bar); err != nil {
		return nil, err
	}
	return &bar, nil
}

// IntradayBars returns minute bars for the session containing date. Absence
// is reported as E-NODATA-INTRADAY; the caller decides whether that
// degrades VWAP or aborts.
func (p *Provider) IntradayBars(ctx context.Context, symbol string, date time.Time) ([]marketdata.IntradayBar, error) {
	symbol = normalizeSymbol(symbol)
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	resp, err := p.client.PriceHistory(ctx, symbol, "minute", dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if resp.Empty || len(resp.Candles) == 0 {
		return nil, guardrail.NewError(guardrail.CodeNoDataIntraday, "no intraday bars",
			"symbol", symbol, "date", date.Format("2006-01-02"), "request_id", p.requestID)
	}
	bars := make([]marketdata.IntradayBar, 0, len(resp.Candles))
	for _, c := range resp.Candles {
		bars = append(bars, marketdata.IntradayBar{
			Timestamp: time.UnixMilli(c.Datetime).UTC(),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

// Quote returns the latest NBBO snapshot for the symbol.
func (p *Provider) Quote(ctx context.Context, symbol string) (*marketdata.QuoteSnapshot, error) {
	symbol = normalizeSymbol(symbol)
	resp, err := p.client.Quotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	entry, ok := resp[symbol]
	if !ok {
		return nil, guardrail.NewError(guardrail.CodeProviderParse, "quote missing from response",
			"symbol", symbol)
	}
	quote := marketdata.QuoteSnapshot{
		Symbol:    symbol,
		Timestamp: time.UnixMilli(entry.Quote.QuoteTimeMsec).UTC(),
		Bid:       entry.Quote.BidPrice,
		Ask:       entry.Quote.AskPrice,
	}
	if err := marketdata.ValidateQuote(quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// TimeSales returns the trade and quote tape, each ascending by timestamp.
func (p *Provider) TimeSales(ctx context.Context, symbol string, from, to time.Time) (*marketdata.Tape, error) {
	symbol = normalizeSymbol(symbol)
	resp, err := p.client.TimeSales(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	tape := &marketdata.Tape{
		Trades: make([]marketdata.Trade, 0, len(resp.Trades)),
		Quotes: make([]marketdata.QuoteSnapshot, 0, len(resp.Quotes)),
	}
	for _, t := range resp.Trades {
		tape.Trades = append(tape.Trades, marketdata.Trade{
			Symbol:    symbol,
			Timestamp: time.UnixMilli(t.Time).UTC(),
			Price:     t.Price,
			Size:      t.Size,
		})
	}
	for _, q := range resp.Quotes {
		tape.Quotes = append(tape.Quotes, marketdata.QuoteSnapshot{
			Symbol:    symbol,
			Timestamp: time.UnixMilli(q.Time).UTC(),
			Bid:       q.Bid,
			Ask:       q.Ask,
		})
	}
	sort.Slice(tape.Trades, func(i, j int) bool { return tape.Trades[i].Timestamp.Before(tape.Trades[j].Timestamp) })
	sort.Slice(tape.Quotes, func(i, j int) bool { return tape.Quotes[i].Timestamp.Before(tape.Quotes[j].Timestamp) })
	return tape, nil
}

// OptionsChain aggregates the chain into put/call volume and open interest.
func (p *Provider) OptionsChain(ctx context.Context, symbol string) (*marketdata.OptionFlow, error) {
	symbol = normalizeSymbol(symbol)
	resp, err := p.client.Chain(ctx, symbol)
	if err != nil {
		return nil, err
	}
	flow := &marketdata.OptionFlow{Symbol: symbol, AsOf: time.Now().UTC()}
	for _, strikes := range resp.PutExpDateMap {
		for _, contracts := range strikes {
			for _, c := range contracts {
				flow.PutVolume += c.TotalVolume
				flow.PutOI += c.OpenInterest
			}
		}
	}
	for _, strikes := range resp.CallExpDateMap {
		for _, contracts := range strikes {
			for _, c := range contracts {
				flow.CallVolume += c.TotalVolume
				flow.CallOI += c.OpenInterest
			}
		}
	}
	logx.Infow("options chain aggregated",
		logx.Field("symbol", symbol),
		logx.Field("put_volume", flow.PutVolume),
		logx.Field("call_volume", flow.CallVolume))
	return flow, nil
}

// IVSeries returns up to lookback implied-volatility observations, oldest
// first.
func (p *Provider) IVSeries(ctx context.Context, symbol string, lookback int) ([]marketdata.IVPoint, error) {
	symbol = normalizeSymbol(symbol)
	if lookback <= 0 {
		lookback = 252
	}
	resp, err := p.client.VolatilityHistory(ctx, symbol, lookback)
	if err != nil {
		return nil, err
	}
	points := make([]marketdata.IVPoint, 0, len(resp.Points))
	for _, pt := range resp.Points {
		points = append(points, marketdata.IVPoint{
			Timestamp: time.UnixMilli(pt.Datetime).UTC(),
			IV:        pt.Volatility,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	if len(points) > lookback {
		points = points[len(points)-lookback:]
	}
	return points, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
