package cache

import (
	"strings"
	"time"

	"github.com/RobbyMo81/trade-analyst/internal/config"
)

// Namespace is the Redis key prefix for the trade-analyst application.
const Namespace = "ta"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Market Data Keys --------------------------------------------------------

// QuoteKey caches the latest NBBO snapshot per provider and symbol.
func QuoteKey(provider, symbol string) string {
	return formatKey("quote", provider, symbol)
}

// DailyBarKey caches the completed daily bar used for pivot levels.
func DailyBarKey(provider, symbol, date string) string {
	return formatKey("daily", provider, symbol, date)
}

// OptionFlowKey caches the put/call volume and open-interest summary.
func OptionFlowKey(provider, symbol string) string {
	return formatKey("optionflow", provider, symbol)
}

// IVHistoryKey caches the implied-volatility observation window.
func IVHistoryKey(symbol string) string {
	return formatKey("iv", "history", symbol)
}

// --- TTL Helpers -------------------------------------------------------------

// QuoteTTL returns the short-lived TTL for NBBO snapshots.
func QuoteTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}

// DailyBarTTL returns the TTL for completed daily bars, which never change
// intraday.
func DailyBarTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// OptionFlowTTL returns the TTL for option volume summaries.
func OptionFlowTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// IVHistoryTTL returns the TTL for cached IV windows.
func IVHistoryTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// FormatCacheKey is exported for dynamic key construction when patterns are
// not covered by helpers.
func FormatCacheKey(parts ...string) string {
	return formatKey(parts...)
}
