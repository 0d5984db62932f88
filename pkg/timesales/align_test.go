package timesales

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/marketdata"
)

var t0 = time.Date(2025, 3, 14, 14, 30, 0, 0, time.UTC)

func tradeAt(offset time.Duration, price float64, size int64) marketdata.Trade {
	return marketdata.Trade{Symbol: "AAPL", Timestamp: t0.Add(offset), Price: price, Size: size}
}

func quoteAt(offset time.Duration, bid, ask float64) marketdata.QuoteSnapshot {
	return marketdata.QuoteSnapshot{Symbol: "AAPL", Timestamp: t0.Add(offset), Bid: bid, Ask: ask}
}

func TestAlignMatchesMostRecentQuote(t *testing.T) {
	trades := []marketdata.Trade{tradeAt(500*time.Millisecond, 100.2, 10)}
	quotes := []marketdata.QuoteSnapshot{
		quoteAt(0, 99.9, 100.4),
		quoteAt(400*time.Millisecond, 100.0, 100.5),
	}
	out, err := Align(trades, quotes, time.Second)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Quote)
	require.Equal(t, quotes[1], *out[0].Quote)
}

func TestAlignWindowBoundary(t *testing.T) {
	window := time.Second
	quotes := []marketdata.QuoteSnapshot{quoteAt(0, 99.9, 100.1)}

	// A quote exactly windowMs before the trade is a valid match.
	out, err := Align([]marketdata.Trade{tradeAt(window, 100.0, 1)}, quotes, window)
	require.NoError(t, err)
	require.NotNil(t, out[0].Quote)

	// One millisecond further back is not.
	out, err = Align([]marketdata.Trade{tradeAt(window+time.Millisecond, 100.0, 1)}, quotes, window)
	require.NoError(t, err)
	require.Nil(t, out[0].Quote)
}

func TestAlignIgnoresFutureQuotes(t *testing.T) {
	trades := []marketdata.Trade{tradeAt(0, 100.0, 1)}
	quotes := []marketdata.QuoteSnapshot{quoteAt(time.Millisecond, 99.9, 100.1)}
	out, err := Align(trades, quotes, time.Second)
	require.NoError(t, err)
	require.Nil(t, out[0].Quote)
}

func TestAlignNoQuotes(t *testing.T) {
	trades := []marketdata.Trade{tradeAt(0, 100.0, 1), tradeAt(time.Second, 100.1, 2)}
	out, err := Align(trades, nil, time.Second)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Nil(t, out[0].Quote)
	require.Nil(t, out[1].Quote)
}

func TestAlignManyTradesOneQuoteStream(t *testing.T) {
	quotes := []marketdata.QuoteSnapshot{
		quoteAt(0, 99.0, 99.2),
		quoteAt(2*time.Second, 100.0, 100.2),
		quoteAt(4*time.Second, 101.0, 101.2),
	}
	trades := []marketdata.Trade{
		tradeAt(1*time.Second, 99.1, 1),
		tradeAt(2*time.Second, 100.1, 1), // exact timestamp tie: quote at 2s matches
		tradeAt(5*time.Second, 101.1, 1),
	}
	out, err := Align(trades, quotes, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, quotes[0], *out[0].Quote)
	require.Equal(t, quotes[1], *out[1].Quote)
	require.Equal(t, quotes[2], *out[2].Quote)
}

func TestAlignRejectsUnorderedTrades(t *testing.T) {
	trades := []marketdata.Trade{tradeAt(time.Second, 100.0, 1), tradeAt(0, 100.0, 1)}
	_, err := Align(trades, nil, time.Second)
	require.Error(t, err)
	require.Equal(t, guardrail.CodeValidation, guardrail.CodeOf(err))
}

func TestAlignRejectsUnorderedQuotes(t *testing.T) {
	trades := []marketdata.Trade{tradeAt(2*time.Second, 100.0, 1)}
	quotes := []marketdata.QuoteSnapshot{
		quoteAt(time.Second, 99.9, 100.1),
		quoteAt(0, 99.8, 100.0),
	}
	_, err := Align(trades, quotes, time.Second)
	require.Error(t, err)
	require.Equal(t, guardrail.CodeValidation, guardrail.CodeOf(err))
}

func TestAlignEqualTimestampsAreOrdered(t *testing.T) {
	// Equal consecutive timestamps are ascending, not a regression.
	trades := []marketdata.Trade{tradeAt(0, 100.0, 1), tradeAt(0, 100.1, 1)}
	_, err := Align(trades, nil, time.Second)
	require.NoError(t, err)
}
