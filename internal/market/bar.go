// Package market standardizes the OHLCV payloads shared between data loading,
// indicator, and backtest layers.
package market

import (
	"fmt"
	"math"
	"time"
)

// Bar models one OHLCV sample for a fixed time interval.
type Bar struct {
	Ts     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Validate rejects bars with non-positive prices or negative volume.
func (b Bar) Validate() error {
	if b.Ts.IsZero() {
		return fmt.Errorf("bar has zero timestamp")
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("bar at %s has non-positive price", b.Ts.Format(time.RFC3339))
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar at %s has negative volume", b.Ts.Format(time.RFC3339))
	}
	return nil
}

// History is an ordered sequence of bars with strictly increasing timestamps.
type History []Bar

// Validate enforces the ordering invariant: non-empty, valid bars, strictly
// increasing timestamps with no duplicates.
func (h History) Validate() error {
	if len(h) == 0 {
		return fmt.Errorf("history is empty")
	}
	for i, bar := range h {
		if err := bar.Validate(); err != nil {
			return fmt.Errorf("history index %d: %w", i, err)
		}
		if i > 0 && !h[i-1].Ts.Before(bar.Ts) {
			return fmt.Errorf("history index %d: timestamps not strictly increasing (%s after %s)",
				i, bar.Ts.Format(time.RFC3339), h[i-1].Ts.Format(time.RFC3339))
		}
	}
	return nil
}

// UpTo returns the point-in-time prefix of bars with timestamp at or before
// cutoff. The result shares backing storage and must be treated as read-only.
func (h History) UpTo(cutoff time.Time) History {
	idx := len(h)
	for i, bar := range h {
		if bar.Ts.After(cutoff) {
			idx = i
			break
		}
	}
	return h[:idx]
}

// Last returns the most recent bar. Callers must check Len first.
func (h History) Last() Bar { return h[len(h)-1] }

// Prev returns the bar before the most recent one.
func (h History) Prev() Bar { return h[len(h)-2] }

// Opens extracts the open column.
func (h History) Opens() []float64 { return h.column(func(b Bar) float64 { return b.Open }) }

// Highs extracts the high column.
func (h History) Highs() []float64 { return h.column(func(b Bar) float64 { return b.High }) }

// Lows extracts the low column.
func (h History) Lows() []float64 { return h.column(func(b Bar) float64 { return b.Low }) }

// Closes extracts the close column.
func (h History) Closes() []float64 { return h.column(func(b Bar) float64 { return b.Close }) }

// Volumes extracts the volume column.
func (h History) Volumes() []float64 { return h.column(func(b Bar) float64 { return b.Volume }) }

func (h History) column(get func(Bar) float64) []float64 {
	out := make([]float64, len(h))
	for i, bar := range h {
		out[i] = get(bar)
	}
	return out
}

// Undefined marks a derived value whose indicator window has not yet seen
// enough bars. It is never silently replaced with a domain value.
var Undefined = math.NaN()

// Defined reports whether a derived value carries real data.
func Defined(v float64) bool { return !math.IsNaN(v) }
