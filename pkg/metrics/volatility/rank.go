package volatility

// Rank returns the latest value's position between the window minimum and
// maximum, scaled to 0..100. It is nil when fewer than two values exist or
// when max == min (flat regime); both are documented degenerate cases, not
// errors.
func Rank(w *Window) *float64 {
	values := w.Snapshot()
	if len(values) < 2 {
		return nil
	}
	mn, mx := values[0], values[0]
	for _, v := range values[1:] {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	if mx == mn {
		return nil
	}
	last := values[len(values)-1]
	rank := 100.0 * (last - mn) / (mx - mn)
	return &rank
}

// Percentile returns the share of window values at or below the latest
// value, scaled to 0..100. An all-identical window yields 100.0 ("at top of
// identical set") rather than nil; the asymmetry with Rank is intentional
// and load-bearing for output compatibility. Nil only when fewer than two
// values exist.
func Percentile(w *Window) *float64 {
	values := w.Snapshot()
	if len(values) < 2 {
		return nil
	}
	last := values[len(values)-1]
	count := 0
	for _, v := range values {
		if v <= last {
			count++
		}
	}
	pct := 100.0 * float64(count) / float64(len(values))
	return &pct
}
