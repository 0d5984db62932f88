package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/RobbyMo81/trade-analyst/internal/config"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	guardrails := "enforcing"
	if !cfg.FailOnStub {
		guardrails = "development (stub paths allowed)"
	}

	marketData := "not configured"
	switch {
	case strings.TrimSpace(cfg.MarketData.File) != "":
		marketData = cfg.MarketData.File
	case cfg.MarketData.Value != nil:
		marketData = "inline"
	}

	exportDir := cfg.Export.Dir
	if strings.TrimSpace(exportDir) == "" {
		exportDir = "stdout"
	}

	return []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Guardrails: %s", guardrails),
		fmt.Sprintf("Data path: %s", cfg.DataPath),
		fmt.Sprintf("Postgres: %s", presence(cfg.Postgres.DSN != "")),
		fmt.Sprintf("Redis: %s", presence(strings.TrimSpace(cfg.Redis.Host) != "")),
		fmt.Sprintf("TTL (short/medium/long): %ds / %ds / %ds", cfg.TTL.Short, cfg.TTL.Medium, cfg.TTL.Long),
		fmt.Sprintf("Market data config: %s", marketData),
		fmt.Sprintf("Export: %s -> %s", cfg.Export.Format, exportDir),
	}
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
