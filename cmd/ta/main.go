package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/RobbyMo81/trade-analyst/internal/cli"
	"github.com/RobbyMo81/trade-analyst/internal/config"
	"github.com/RobbyMo81/trade-analyst/internal/svc"
	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/marketdata"
)

const defaultConfigPath = "etc/ta.yaml"

type commandFunc func(ctx context.Context, args []string) error

var commands = map[string]commandFunc{
	"calc-levels":     runCalcLevels,
	"quotes":          runQuotes,
	"options-stats":   runOptionsStats,
	"timesales-stats": runTimesalesStats,
	"healthcheck":     runHealthcheck,
	"login":           runLogin,
}

func main() {
	logx.DisableStat()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	name := os.Args[1]
	if name == "help" || name == "-h" || name == "--help" {
		usage()
		return
	}
	run, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[2:]); err != nil {
		code := guardrail.CodeOf(err)
		logx.Errorf("%s failed: %v", name, err)
		os.Exit(code.ExitCode())
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: ta <command> [flags]

Commands:
  calc-levels      compute pivot/R1/S1 and session VWAP for a symbol
  quotes           fetch NBBO snapshots for one or more symbols
  options-stats    put/call ratios plus IV rank and percentile
  timesales-stats  align and classify time & sales against the NBBO
  healthcheck      probe providers and stores, report status
  login            run the OAuth authorization-code flow for a provider

Run 'ta <command> -h' for command flags.
`)
}

// newService loads the main config and wires the service context.
func newService(configPath string) (*svc.ServiceContext, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, guardrail.WrapError(guardrail.CodeConfig, err, "load configuration",
			"path", configPath)
	}
	cli.LogConfigSummary(cfg)
	return svc.NewServiceContext(*cfg), nil
}

// pickProvider resolves -provider, falling back to the configured default.
func pickProvider(sc *svc.ServiceContext, name string) (marketdata.Provider, error) {
	name = strings.TrimSpace(name)
	if name != "" {
		p, ok := sc.Providers[name]
		if !ok {
			return nil, guardrail.NewError(guardrail.CodeConfig, "provider not configured",
				"provider", name)
		}
		return p, nil
	}
	if sc.DefaultProvider == nil {
		return nil, guardrail.NewError(guardrail.CodeConfig,
			"no market data provider configured; set MarketData.File in the main config")
	}
	return sc.DefaultProvider, nil
}

func parseSymbols(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToUpper(strings.TrimSpace(field))
		if field == "" {
			continue
		}
		if _, exists := seen[field]; exists {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}
