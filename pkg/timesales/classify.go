package timesales

// tickState is the tick rule's cross-trade memory, threaded through the run
// as an explicit accumulator so Classify stays a pure function of its
// inputs.
type tickState struct {
	hasPrev   bool
	prevPrice float64
	prevLabel Label
	hasLabel  bool
}

func (s tickState) decide(price float64) Label {
	switch {
	case !s.hasPrev:
		return LabelMid
	case price > s.prevPrice:
		return LabelAsk
	case price < s.prevPrice:
		return LabelBid
	case s.hasLabel:
		return s.prevLabel
	default:
		return LabelMid
	}
}

func (s tickState) advance(price float64, label Label) tickState {
	return tickState{hasPrev: true, prevPrice: price, prevLabel: label, hasLabel: true}
}

// Classify labels each aligned trade and aggregates the run into
// size-weighted percentages with an overall confidence rating. NBBO matches
// take priority; unmatched trades fall back to the tick rule. The tick
// rule's previous-price memory covers the whole ordered sequence and resets
// each run.
func Classify(aligned []AlignedTrade, cfg Config) Aggregate {
	cfg = cfg.withDefaults()

	agg := Aggregate{Labeled: make([]ClassifiedTrade, 0, len(aligned))}
	var sizeAt [3]int64 // bid, ask, mid
	var totalSize, nbboSize int64
	tick := tickState{}

	for _, at := range aligned {
		var label Label
		var source Source
		if at.Quote != nil {
			source = SourceNBBO
			switch {
			case at.Trade.Price <= at.Quote.Bid+cfg.PriceEpsilon:
				label = LabelBid
			case at.Trade.Price >= at.Quote.Ask-cfg.PriceEpsilon:
				label = LabelAsk
			default:
				label = LabelMid
			}
		} else {
			source = SourceTick
			label = tick.decide(at.Trade.Price)
		}
		// The tick memory tracks every print, NBBO-matched or not, so a
		// fallback mid-run compares against the true previous trade.
		tick = tick.advance(at.Trade.Price, label)

		agg.Labeled = append(agg.Labeled, ClassifiedTrade{Trade: at.Trade, Label: label, Source: source})
		totalSize += at.Trade.Size
		if source == SourceNBBO {
			nbboSize += at.Trade.Size
		}
		switch label {
		case LabelBid:
			sizeAt[0] += at.Trade.Size
		case LabelAsk:
			sizeAt[1] += at.Trade.Size
		default:
			sizeAt[2] += at.Trade.Size
		}
	}

	if totalSize == 0 {
		agg.Confidence = ConfidenceTick
		return agg
	}

	pct := func(n int64) *float64 {
		v := 100.0 * float64(n) / float64(totalSize)
		return &v
	}
	agg.PctAtBid = pct(sizeAt[0])
	agg.PctAtAsk = pct(sizeAt[1])
	agg.PctAtMid = pct(sizeAt[2])
	agg.NBBOShare = float64(nbboSize) / float64(totalSize)
	agg.Valid = true

	switch {
	case agg.NBBOShare >= cfg.NBBOConfidenceShare:
		agg.Confidence = ConfidenceNBBO
	case agg.NBBOShare == 0:
		agg.Confidence = ConfidenceTick
	default:
		agg.Confidence = ConfidenceMixed
	}
	return agg
}
