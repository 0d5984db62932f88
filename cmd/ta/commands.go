package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/RobbyMo81/trade-analyst/internal/healthcheck"
	"github.com/RobbyMo81/trade-analyst/internal/ivstore"
	"github.com/RobbyMo81/trade-analyst/pkg/export"
	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/marketdata"
	"github.com/RobbyMo81/trade-analyst/pkg/marketdata/schwab"
	simpkg "github.com/RobbyMo81/trade-analyst/pkg/marketdata/sim"
	"github.com/RobbyMo81/trade-analyst/pkg/metrics/levels"
	"github.com/RobbyMo81/trade-analyst/pkg/metrics/optionflow"
	"github.com/RobbyMo81/trade-analyst/pkg/metrics/volatility"
	"github.com/RobbyMo81/trade-analyst/pkg/timesales"
)

func isSynthetic(p marketdata.Provider) bool {
	_, ok := p.(*simpkg.Provider)
	return ok
}

func provenanceFor(p marketdata.Provider, opts ...guardrail.ProvenanceOption) guardrail.Provenance {
	if sp, ok := p.(*schwab.Provider); ok {
		opts = append(opts, guardrail.WithRequestID(sp.RequestID()))
	}
	return guardrail.BuildProvenance(p.Name(), isSynthetic(p), opts...)
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return guardrail.WrapError(guardrail.CodeFormat, err, "parse flags")
	}
	return nil
}

func requireSymbol(raw string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	if sym == "" {
		return "", guardrail.NewError(guardrail.CodeFormat, "-symbol is required")
	}
	return sym, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return guardrail.WrapError(guardrail.CodeSchema, err, "encode output")
	}
	return nil
}

func runCalcLevels(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("calc-levels", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "path to main config")
	symbolRaw := fs.String("symbol", "", "symbol (required)")
	dateRaw := fs.String("date", "", "session date YYYY-MM-DD (default today UTC)")
	providerName := fs.String("provider", "", "provider name (default from config)")
	format := fs.String("format", "", "override export format (ai-block|json|csv|parquet)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	symbol, err := requireSymbol(*symbolRaw)
	if err != nil {
		return err
	}
	date := time.Now().UTC()
	if *dateRaw != "" {
		date, err = time.Parse("2006-01-02", *dateRaw)
		if err != nil {
			return guardrail.WrapError(guardrail.CodeFormat, err, "parse -date",
				"date", *dateRaw)
		}
	}

	sc, err := newService(*configPath)
	if err != nil {
		return err
	}
	provider, err := pickProvider(sc, *providerName)
	if err != nil {
		return err
	}

	daily, err := provider.DailyOHLC(ctx, symbol, date)
	if err != nil {
		return err
	}
	pivots, err := levels.ComputePivotLevels(*daily)
	if err != nil {
		return err
	}

	// Missing intraday degrades VWAP to unavailable; everything else is
	// still reported.
	var vwap *float64
	bars, err := provider.IntradayBars(ctx, symbol, date)
	switch {
	case err == nil:
		vwap = levels.ComputeSessionVWAP(bars)
	case guardrail.CodeOf(err) == guardrail.CodeNoDataIntraday:
		logx.Infow("no intraday bars; vwap unavailable",
			logx.Field("symbol", symbol), logx.Field("date", *dateRaw))
	default:
		return err
	}

	method := levels.VWAPMethodUnavailable
	if vwap != nil {
		method = levels.VWAPMethodIntraday
	}

	result := levels.Result{
		Symbol:     symbol,
		Date:       date,
		Pivot:      pivots.Pivot,
		R1:         pivots.R1,
		S1:         pivots.S1,
		VWAP:       vwap,
		Quality:    levels.Quality{VWAPMethod: method},
		Provenance: provenanceFor(provider, guardrail.WithVWAPMethod(method)),
	}

	exporter := sc.Exporter
	if strings.TrimSpace(*format) != "" {
		exporter, err = export.NewExporter(sc.Gate, *format, sc.Config.Export.Dir)
		if err != nil {
			return err
		}
	}
	path, err := exporter.Export(export.NewLevelsDocument(&result))
	if err != nil {
		return err
	}
	if path != "" {
		logx.Infof("levels written to %s", path)
	}
	return nil
}

func runQuotes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("quotes", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "path to main config")
	symbolsRaw := fs.String("symbols", "", "comma separated symbols (required)")
	providerName := fs.String("provider", "", "provider name (default from config)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	symbols := parseSymbols(*symbolsRaw)
	if len(symbols) == 0 {
		return guardrail.NewError(guardrail.CodeFormat, "-symbols is required")
	}

	sc, err := newService(*configPath)
	if err != nil {
		return err
	}
	provider, err := pickProvider(sc, *providerName)
	if err != nil {
		return err
	}

	type quoteDoc struct {
		marketdata.QuoteSnapshot
		Provenance guardrail.Provenance `json:"provenance"`
	}
	docs := make([]quoteDoc, 0, len(symbols))
	for _, symbol := range symbols {
		quote, err := provider.Quote(ctx, symbol)
		if err != nil {
			return err
		}
		docs = append(docs, quoteDoc{QuoteSnapshot: *quote, Provenance: provenanceFor(provider)})
	}
	return printJSON(docs)
}

// ratioDoc keeps null, +Inf and finite put/call outcomes distinguishable in
// JSON output.
type ratioDoc struct {
	Value    *float64 `json:"value"`
	Infinite bool     `json:"infinite,omitempty"`
}

func toRatioDoc(r optionflow.Ratio) ratioDoc {
	return ratioDoc{Value: r.Value, Infinite: r.Infinite}
}

func runOptionsStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("options-stats", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "path to main config")
	symbolRaw := fs.String("symbol", "", "symbol (required)")
	providerName := fs.String("provider", "", "provider name (default from config)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	symbol, err := requireSymbol(*symbolRaw)
	if err != nil {
		return err
	}
	sc, err := newService(*configPath)
	if err != nil {
		return err
	}
	provider, err := pickProvider(sc, *providerName)
	if err != nil {
		return err
	}

	flow, err := provider.OptionsChain(ctx, symbol)
	if err != nil {
		return err
	}
	volumeRatio, err := optionflow.PutCallVolumeRatio(*flow)
	if err != nil {
		return err
	}
	oiRatio, err := optionflow.PutCallOIRatio(*flow)
	if err != nil {
		return err
	}

	lookback := sc.Config.Volatility.LookbackDays

	// Backfill the store from the provider series, then rank against the
	// persisted window so history accumulates across runs.
	points, err := provider.IVSeries(ctx, symbol, lookback)
	if err != nil {
		return err
	}
	for _, point := range points {
		if err := sc.IVStore.Record(ctx, ivstore.Observation{
			Symbol: symbol,
			Date:   point.Timestamp,
			IV:     point.IV,
			Source: provider.Name(),
		}); err != nil {
			return err
		}
	}
	history, err := sc.IVStore.History(ctx, symbol, lookback)
	if err != nil {
		return err
	}
	window := volatility.NewWindow(lookback)
	for _, obs := range history {
		window.Append(volatility.Observation{Symbol: symbol, Timestamp: obs.Date, IV: obs.IV})
	}

	doc := struct {
		Symbol       string               `json:"symbol"`
		AsOf         time.Time            `json:"as_of"`
		PutVolume    int64                `json:"put_volume"`
		CallVolume   int64                `json:"call_volume"`
		PutOI        int64                `json:"put_oi"`
		CallOI       int64                `json:"call_oi"`
		VolumeRatio  ratioDoc             `json:"put_call_volume_ratio"`
		OIRatio      ratioDoc             `json:"put_call_oi_ratio"`
		IVRank       *float64             `json:"iv_rank"`
		IVPercentile *float64             `json:"iv_percentile"`
		IVWindow     int                  `json:"iv_window_count"`
		IVRejected   int64                `json:"iv_rejected_count,omitempty"`
		Provenance   guardrail.Provenance `json:"provenance"`
	}{
		Symbol:       symbol,
		AsOf:         flow.AsOf,
		PutVolume:    flow.PutVolume,
		CallVolume:   flow.CallVolume,
		PutOI:        flow.PutOI,
		CallOI:       flow.CallOI,
		VolumeRatio:  toRatioDoc(volumeRatio),
		OIRatio:      toRatioDoc(oiRatio),
		IVRank:       volatility.Rank(window),
		IVPercentile: volatility.Percentile(window),
		IVWindow:     window.Len(),
		IVRejected:   window.Rejected(),
		Provenance:   provenanceFor(provider),
	}
	return printJSON(doc)
}

func runTimesalesStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("timesales-stats", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "path to main config")
	symbolRaw := fs.String("symbol", "", "symbol (required)")
	fromRaw := fs.String("from", "", "window start, RFC3339 (required)")
	toRaw := fs.String("to", "", "window end, RFC3339 (required)")
	providerName := fs.String("provider", "", "provider name (default from config)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	symbol, err := requireSymbol(*symbolRaw)
	if err != nil {
		return err
	}
	from, err := time.Parse(time.RFC3339, *fromRaw)
	if err != nil {
		return guardrail.WrapError(guardrail.CodeFormat, err, "parse -from", "from", *fromRaw)
	}
	to, err := time.Parse(time.RFC3339, *toRaw)
	if err != nil {
		return guardrail.WrapError(guardrail.CodeFormat, err, "parse -to", "to", *toRaw)
	}
	if !to.After(from) {
		return guardrail.NewError(guardrail.CodeFormat, "-to must be after -from",
			"from", *fromRaw, "to", *toRaw)
	}

	sc, err := newService(*configPath)
	if err != nil {
		return err
	}
	provider, err := pickProvider(sc, *providerName)
	if err != nil {
		return err
	}

	tape, err := provider.TimeSales(ctx, symbol, from, to)
	if err != nil {
		return err
	}

	window := time.Duration(sc.Config.Timesales.WindowMs) * time.Millisecond
	aligned, err := timesales.Align(tape.Trades, tape.Quotes, window)
	if err != nil {
		return err
	}
	agg := timesales.Classify(aligned, timesales.Config{
		NBBOConfidenceShare: float64(sc.Config.Timesales.NBBOSharePct) / 100,
	})

	matched := 0
	for _, a := range aligned {
		if a.Quote != nil {
			matched++
		}
	}

	doc := struct {
		Symbol     string               `json:"symbol"`
		From       time.Time            `json:"from"`
		To         time.Time            `json:"to"`
		Trades     int                  `json:"trades"`
		Matched    int                  `json:"nbbo_matched"`
		PctAtBid   *float64             `json:"pct_at_bid"`
		PctAtAsk   *float64             `json:"pct_at_ask"`
		PctAtMid   *float64             `json:"pct_at_mid"`
		NBBOShare  float64              `json:"nbbo_share"`
		Confidence timesales.Confidence `json:"confidence"`
		Valid      bool                 `json:"valid"`
		Provenance guardrail.Provenance `json:"provenance"`
	}{
		Symbol:     symbol,
		From:       from,
		To:         to,
		Trades:     len(tape.Trades),
		Matched:    matched,
		PctAtBid:   agg.PctAtBid,
		PctAtAsk:   agg.PctAtAsk,
		PctAtMid:   agg.PctAtMid,
		NBBOShare:  agg.NBBOShare,
		Confidence: agg.Confidence,
		Valid:      agg.Valid,
		Provenance: provenanceFor(provider),
	}
	return printJSON(doc)
}

func runHealthcheck(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "path to main config")
	timeout := fs.Duration("timeout", healthcheck.DefaultTimeout, "per-check timeout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	sc, err := newService(*configPath)
	if err != nil {
		return err
	}

	report := healthcheck.Run(ctx, healthcheck.Params{
		Gate:      sc.Gate,
		Providers: sc.Providers,
		Store:     sc.IVStore,
		Timeout:   *timeout,
	})
	if err := printJSON(report); err != nil {
		return err
	}
	if !report.Healthy {
		os.Exit(1)
	}
	return nil
}

func runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "path to main config")
	providerName := fs.String("provider", "", "provider name (default from config)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	sc, err := newService(*configPath)
	if err != nil {
		return err
	}
	provider, err := pickProvider(sc, *providerName)
	if err != nil {
		return err
	}
	sp, ok := provider.(*schwab.Provider)
	if !ok {
		return guardrail.NewError(guardrail.CodeConfig, "provider does not support OAuth login",
			"provider", provider.Name())
	}

	pkce, err := schwab.GeneratePKCE()
	if err != nil {
		return err
	}
	state := uuid.NewString()

	fmt.Println("Open this URL in your browser and authorize access:")
	fmt.Println()
	fmt.Println("  " + sp.Auth().AuthorizeURL(state, pkce))
	fmt.Println()
	fmt.Print("Paste the redirect URL (or just the authorization code): ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return guardrail.WrapError(guardrail.CodeFormat, err, "read authorization response")
	}
	code, err := extractAuthCode(strings.TrimSpace(line), state)
	if err != nil {
		return err
	}

	if err := sp.Auth().Exchange(ctx, code, pkce.Verifier); err != nil {
		return err
	}
	logx.Info("login successful; tokens saved")
	return nil
}

// extractAuthCode accepts either the raw authorization code or the full
// redirect URL, verifying state when present.
func extractAuthCode(input, state string) (string, error) {
	if input == "" {
		return "", guardrail.NewError(guardrail.CodeFormat, "empty authorization response")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", guardrail.WrapError(guardrail.CodeFormat, err, "parse redirect URL")
	}
	q := u.Query()
	code := q.Get("code")
	if code == "" {
		return "", guardrail.NewError(guardrail.CodeFormat, "redirect URL carries no code parameter")
	}
	if got := q.Get("state"); got != "" && got != state {
		return "", guardrail.NewError(guardrail.CodeAuth, "state mismatch in redirect URL")
	}
	return code, nil
}
