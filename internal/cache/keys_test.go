package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RobbyMo81/trade-analyst/internal/config"
)

func TestFormatKey(t *testing.T) {
	require.Equal(t, "ta:quote:schwab:NQ", QuoteKey("schwab", "NQ"))
	require.Equal(t, "ta:daily:schwab:ES:2025-03-14", DailyBarKey("schwab", "ES", "2025-03-14"))
	require.Equal(t, "ta:iv:history:SPY", IVHistoryKey("SPY"))
	// Blank segments collapse instead of producing "ta::x".
	require.Equal(t, "ta:optionflow:SPY", OptionFlowKey("", "SPY"))
}

func TestNewTTLSet(t *testing.T) {
	ttl := NewTTLSet(config.CacheTTL{Short: 5, Medium: 30, Long: 600})
	require.Equal(t, 5*time.Second, ttl.Short)
	require.Equal(t, 30*time.Second, ttl.Medium)
	require.Equal(t, 10*time.Minute, ttl.Long)

	// Zero values fall back to defaults, negatives disable caching.
	ttl = NewTTLSet(config.CacheTTL{Short: 0, Medium: -1, Long: 0})
	require.Equal(t, 10*time.Second, ttl.Short)
	require.Equal(t, time.Duration(0), ttl.Medium)
	require.Equal(t, 5*time.Minute, ttl.Long)
}

func TestTTLClassSelection(t *testing.T) {
	ttl := NewTTLSet(config.CacheTTL{Short: 10, Medium: 60, Long: 300})
	require.Equal(t, ttl.Short, QuoteTTL(ttl))
	require.Equal(t, ttl.Long, DailyBarTTL(ttl))
	require.Equal(t, ttl.Medium, OptionFlowTTL(ttl))
	require.Equal(t, time.Duration(0), ttl.Duration(TTLClass("bogus")))
}
