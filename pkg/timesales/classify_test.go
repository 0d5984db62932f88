package timesales

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RobbyMo81/trade-analyst/pkg/marketdata"
)

func aligned(trade marketdata.Trade, quote *marketdata.QuoteSnapshot) AlignedTrade {
	return AlignedTrade{Trade: trade, Quote: quote}
}

func TestClassifyNBBO(t *testing.T) {
	q := quoteAt(0, 100.0, 100.5)
	input := []AlignedTrade{
		aligned(tradeAt(time.Millisecond, 100.0, 10), &q),  // at bid
		aligned(tradeAt(2*time.Millisecond, 100.5, 20), &q), // at ask
		aligned(tradeAt(3*time.Millisecond, 100.2, 30), &q), // inside
	}
	agg := Classify(input, Config{})
	require.True(t, agg.Valid)
	require.Equal(t, LabelBid, agg.Labeled[0].Label)
	require.Equal(t, LabelAsk, agg.Labeled[1].Label)
	require.Equal(t, LabelMid, agg.Labeled[2].Label)
	for _, ct := range agg.Labeled {
		require.Equal(t, SourceNBBO, ct.Source)
	}
	require.InDelta(t, 100.0*10/60, *agg.PctAtBid, 1e-9)
	require.InDelta(t, 100.0*20/60, *agg.PctAtAsk, 1e-9)
	require.InDelta(t, 100.0*30/60, *agg.PctAtMid, 1e-9)
	require.InDelta(t, 100.0, *agg.PctAtBid+*agg.PctAtAsk+*agg.PctAtMid, 1e-9)
	require.Equal(t, ConfidenceNBBO, agg.Confidence)
	require.InDelta(t, 1.0, agg.NBBOShare, 1e-9)
}

func TestClassifyEpsilonBands(t *testing.T) {
	q := quoteAt(0, 100.0, 100.5)
	cfg := Config{PriceEpsilon: 0.01}
	agg := Classify([]AlignedTrade{
		aligned(tradeAt(time.Millisecond, 100.005, 1), &q), // within eps of bid
		aligned(tradeAt(2*time.Millisecond, 100.495, 1), &q), // within eps of ask
	}, cfg)
	require.Equal(t, LabelBid, agg.Labeled[0].Label)
	require.Equal(t, LabelAsk, agg.Labeled[1].Label)
}

func TestClassifyTickRuleOnly(t *testing.T) {
	// No quotes at all: every trade labels via the tick rule.
	input := []AlignedTrade{
		aligned(tradeAt(0, 100.0, 10), nil),                    // no prev -> mid
		aligned(tradeAt(time.Second, 100.5, 20), nil),          // uptick -> ask
		aligned(tradeAt(2*time.Second, 100.2, 30), nil),        // downtick -> bid
		aligned(tradeAt(3*time.Second, 100.2, 40), nil),        // unchanged -> reuse bid
	}
	agg := Classify(input, Config{})
	require.Equal(t, []Label{LabelMid, LabelAsk, LabelBid, LabelBid},
		[]Label{agg.Labeled[0].Label, agg.Labeled[1].Label, agg.Labeled[2].Label, agg.Labeled[3].Label})
	for _, ct := range agg.Labeled {
		require.Equal(t, SourceTick, ct.Source)
	}
	require.Equal(t, ConfidenceTick, agg.Confidence)
	require.Zero(t, agg.NBBOShare)
}

func TestClassifySingleTradeNoQuotes(t *testing.T) {
	// Single trade, no quotes: tick rule with no previous price -> mid.
	agg := Classify([]AlignedTrade{aligned(tradeAt(0, 10, 5), nil)}, Config{})
	require.True(t, agg.Valid)
	require.Equal(t, LabelMid, agg.Labeled[0].Label)
	require.Equal(t, ConfidenceTick, agg.Confidence)
}

func TestClassifyMixedConfidence(t *testing.T) {
	q := quoteAt(0, 100.0, 100.5)
	agg := Classify([]AlignedTrade{
		aligned(tradeAt(time.Millisecond, 100.0, 50), &q),
		aligned(tradeAt(time.Second, 100.1, 50), nil),
	}, Config{})
	require.InDelta(t, 0.5, agg.NBBOShare, 1e-9)
	require.Equal(t, ConfidenceMixed, agg.Confidence)
}

func TestClassifyConfidenceThresholdConfigurable(t *testing.T) {
	q := quoteAt(0, 100.0, 100.5)
	input := []AlignedTrade{
		aligned(tradeAt(time.Millisecond, 100.0, 60), &q),
		aligned(tradeAt(time.Second, 100.1, 40), nil),
	}
	require.Equal(t, ConfidenceMixed, Classify(input, Config{}).Confidence)
	require.Equal(t, ConfidenceNBBO, Classify(input, Config{NBBOConfidenceShare: 0.60}).Confidence)
}

func TestClassifyZeroTotalSize(t *testing.T) {
	agg := Classify(nil, Config{})
	require.False(t, agg.Valid)
	require.Nil(t, agg.PctAtBid)
	require.Nil(t, agg.PctAtAsk)
	require.Nil(t, agg.PctAtMid)
}

func TestClassifyIdempotent(t *testing.T) {
	q := quoteAt(0, 100.0, 100.5)
	input := []AlignedTrade{
		aligned(tradeAt(time.Millisecond, 100.2, 10), &q),
		aligned(tradeAt(time.Second, 100.3, 20), nil),
		aligned(tradeAt(2*time.Second, 100.3, 5), nil),
	}
	first := Classify(input, Config{})
	second := Classify(input, Config{})
	require.Equal(t, first, second)
}

func TestClassifyTickMemoryTracksNBBOMatchedPrints(t *testing.T) {
	// The second trade has no quote; its tick comparison runs against the
	// NBBO-matched first print, not against nothing.
	q := quoteAt(0, 100.0, 100.5)
	agg := Classify([]AlignedTrade{
		aligned(tradeAt(time.Millisecond, 100.5, 10), &q),
		aligned(tradeAt(time.Second, 100.6, 10), nil),
	}, Config{})
	require.Equal(t, LabelAsk, agg.Labeled[1].Label)
	require.Equal(t, SourceTick, agg.Labeled[1].Source)
}
