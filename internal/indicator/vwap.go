package indicator

import (
	"time"

	"quantbot-go/internal/market"
)

// VWAP computes the typical-price volume-weighted cumulative average. Until
// any volume has traded the ratio is undefined.
func VWAP(bars market.History) []float64 {
	out := make([]float64, len(bars))
	var cumPV, cumVol float64
	for i, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		cumPV += typical * b.Volume
		cumVol += b.Volume
		if cumVol == 0 {
			out[i] = market.Undefined
			continue
		}
		out[i] = cumPV / cumVol
	}
	return out
}

// SessionBounds describes a fixed intraday UTC window aggregated to a daily
// high/low.
type SessionBounds struct {
	StartHour int
	EndHour   int
}

// Contains reports whether ts falls inside the session window, with both
// boundary instants inclusive.
func (s SessionBounds) Contains(ts time.Time) bool {
	t := ts.UTC()
	h := t.Hour()
	if h < s.StartHour || h > s.EndHour {
		return false
	}
	if h == s.EndHour {
		return t.Minute() == 0 && t.Second() == 0
	}
	return true
}

// SessionRange aggregates each UTC day's session window to a daily high/low
// and forward-fills the aggregate onto later bars. An aggregate becomes
// visible only after its session has completed, so a bar never reads a range
// that includes itself or later data. Bars before the first completed
// session are undefined.
func SessionRange(bars market.History, session SessionBounds) (high, low []float64) {
	high = undefinedSlice(len(bars))
	low = undefinedSlice(len(bars))

	pubHigh, pubLow := market.Undefined, market.Undefined
	curHigh, curLow := market.Undefined, market.Undefined
	var curDay time.Time

	for i, b := range bars {
		day := b.Ts.UTC().Truncate(24 * time.Hour)
		inSession := session.Contains(b.Ts)

		if !day.Equal(curDay) {
			if market.Defined(curHigh) {
				pubHigh, pubLow = curHigh, curLow
			}
			curHigh, curLow = market.Undefined, market.Undefined
			curDay = day
		}
		if !inSession && market.Defined(curHigh) {
			// Session closed earlier today; publish before this bar reads it.
			pubHigh, pubLow = curHigh, curLow
			curHigh, curLow = market.Undefined, market.Undefined
		}

		high[i], low[i] = pubHigh, pubLow

		if inSession {
			if !market.Defined(curHigh) || b.High > curHigh {
				curHigh = b.High
			}
			if !market.Defined(curLow) || b.Low < curLow {
				curLow = b.Low
			}
		}
	}
	return high, low
}
