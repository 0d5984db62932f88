package timesales

import (
	"time"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/marketdata"
)

// DefaultNBBOWindow bounds how far back a quote may sit from the trade it
// labels.
const DefaultNBBOWindow = 1000 * time.Millisecond

// Align pairs each trade with the most recent quote whose timestamp lies in
// [trade-window, trade]. Both inputs must already be ascending by
// timestamp; the sweep is a single forward pass over each sequence,
// O(len(trades)+len(quotes)), and never backtracks. A detected timestamp
// regression in either input aborts with a validation error instead of
// producing undefined matches.
func Align(trades []marketdata.Trade, quotes []marketdata.QuoteSnapshot, window time.Duration) ([]AlignedTrade, error) {
	if window <= 0 {
		window = DefaultNBBOWindow
	}

	out := make([]AlignedTrade, 0, len(trades))
	qi := 0
	var lastTradeTs, lastQuoteTs time.Time

	for i, trade := range trades {
		if i > 0 && trade.Timestamp.Before(lastTradeTs) {
			return nil, guardrail.NewError(guardrail.CodeValidation,
				"trades out of chronological order",
				"index", i, "ts", trade.Timestamp, "prev_ts", lastTradeTs)
		}
		lastTradeTs = trade.Timestamp

		// Advance the cursor to the last quote at or before the trade.
		for qi < len(quotes) && !quotes[qi].Timestamp.After(trade.Timestamp) {
			if qi > 0 && quotes[qi].Timestamp.Before(lastQuoteTs) {
				return nil, guardrail.NewError(guardrail.CodeValidation,
					"quotes out of chronological order",
					"index", qi, "ts", quotes[qi].Timestamp, "prev_ts", lastQuoteTs)
			}
			lastQuoteTs = quotes[qi].Timestamp
			qi++
		}

		aligned := AlignedTrade{Trade: trade}
		if qi > 0 {
			quote := quotes[qi-1]
			// Boundary inclusive at the lower edge: 0 <= delta <= window.
			if delta := trade.Timestamp.Sub(quote.Timestamp); delta >= 0 && delta <= window {
				aligned.Quote = &quote
			}
		}
		out = append(out, aligned)
	}
	return out, nil
}
