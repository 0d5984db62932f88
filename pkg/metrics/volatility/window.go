// Package volatility maintains a bounded per-symbol history of implied
// volatility observations and computes rank/percentile against it.
package volatility

import (
	"sync"
	"time"
)

// DefaultCapacity is one year of trading days.
const DefaultCapacity = 252

// IV observations outside [MinIV, MaxIV] are rejected at ingestion.
const (
	MinIV = 0.0
	MaxIV = 10.0
)

// Observation is one implied-volatility reading for a symbol.
type Observation struct {
	Symbol    string
	Timestamp time.Time
	IV        float64
}

// Window is a fixed-capacity ring buffer of IV values for a single symbol.
// Append and eviction are O(1). A window must not be shared across symbols;
// concurrent appends for the same symbol are serialised internally.
type Window struct {
	mu       sync.Mutex
	buf      []float64
	head     int // index of the oldest element
	size     int
	rejected int64
}

// NewWindow allocates a window. capacity <= 0 falls back to DefaultCapacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{buf: make([]float64, capacity)}
}

// Append stores an observation, evicting the oldest entry at capacity.
// Values outside [MinIV, MaxIV] are dropped and counted, never stored.
func (w *Window) Append(obs Observation) bool {
	if obs.IV < MinIV || obs.IV > MaxIV {
		w.mu.Lock()
		w.rejected++
		w.mu.Unlock()
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.size < len(w.buf) {
		w.buf[(w.head+w.size)%len(w.buf)] = obs.IV
		w.size++
		return true
	}
	w.buf[w.head] = obs.IV
	w.head = (w.head + 1) % len(w.buf)
	return true
}

// Len returns the number of stored values.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Capacity returns the fixed window capacity.
func (w *Window) Capacity() int { return len(w.buf) }

// Rejected returns the count of observations dropped at ingestion. It is a
// data-quality side channel, not an error state.
func (w *Window) Rejected() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rejected
}

// Snapshot copies the stored values oldest first. Internal indices are never
// exposed.
func (w *Window) Snapshot() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]float64, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}
