// Package timesales labels trade prints against the national best bid/offer
// and aggregates the tape into size-weighted bid/ask/mid percentages.
package timesales

import "github.com/RobbyMo81/trade-analyst/pkg/marketdata"

// Label is the side a trade executed at.
type Label string

const (
	LabelBid Label = "bid"
	LabelAsk Label = "ask"
	LabelMid Label = "mid"
)

// Source records which rule produced a label.
type Source string

const (
	SourceNBBO Source = "nbbo"
	SourceTick Source = "tick"
)

// AlignedTrade pairs a trade with the most recent NBBO snapshot inside the
// alignment window, or nil when unmatched.
type AlignedTrade struct {
	Trade marketdata.Trade
	Quote *marketdata.QuoteSnapshot
}

// ClassifiedTrade is a trade plus its side label. The label is computed
// exactly once, from either an NBBO match or the tick rule, never both.
type ClassifiedTrade struct {
	marketdata.Trade
	Label  Label
	Source Source
}

// Confidence rates a classification run by how much of the traded size was
// NBBO-matched.
type Confidence string

const (
	ConfidenceNBBO  Confidence = "nbbo"
	ConfidenceMixed Confidence = "mixed"
	ConfidenceTick  Confidence = "tick"
)

// Config tunes the classifier. Zero values pick the defaults.
type Config struct {
	// PriceEpsilon widens the bid/ask bands when comparing trade prices.
	PriceEpsilon float64
	// NBBOConfidenceShare is the minimum NBBO-matched size share for an
	// overall "nbbo" confidence rating.
	NBBOConfidenceShare float64
}

const (
	defaultPriceEpsilon        = 1e-6
	defaultNBBOConfidenceShare = 0.80
)

func (c Config) withDefaults() Config {
	if c.PriceEpsilon <= 0 {
		c.PriceEpsilon = defaultPriceEpsilon
	}
	if c.NBBOConfidenceShare <= 0 || c.NBBOConfidenceShare > 1 {
		c.NBBOConfidenceShare = defaultNBBOConfidenceShare
	}
	return c
}

// Aggregate is the output of one classification run.
type Aggregate struct {
	Labeled []ClassifiedTrade

	// Size-weighted percentages; nil when total classified size is zero.
	PctAtBid *float64
	PctAtAsk *float64
	PctAtMid *float64

	// NBBOShare is the fraction of total size labeled via NBBO, 0..1.
	NBBOShare  float64
	Confidence Confidence

	// Valid is false when there was nothing to classify.
	Valid bool
}
