package indicator

import "quantbot-go/internal/market"

// OBV computes on-balance volume: cumulative volume signed by the direction
// of the close-to-close change. The first bar has no prior close and
// contributes zero.
func OBV(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	var running float64
	for i := range closes {
		if i > 0 {
			switch {
			case closes[i] > closes[i-1]:
				running += volumes[i]
			case closes[i] < closes[i-1]:
				running -= volumes[i]
			}
		}
		out[i] = running
	}
	return out
}

// DeltaVolume computes cumulative volume signed by the bar's close-open
// change. Flat bars contribute zero.
func DeltaVolume(bars market.History) []float64 {
	out := make([]float64, len(bars))
	var running float64
	for i, b := range bars {
		switch {
		case b.Close > b.Open:
			running += b.Volume
		case b.Close < b.Open:
			running -= b.Volume
		}
		out[i] = running
	}
	return out
}

// FairValueGap measures the downside imbalance between consecutive bars:
// previous low minus current high, clipped to non-negative, reduced by a
// trailing maximum over the lookback window.
func FairValueGap(bars market.History, lookback int) []float64 {
	clipped := make([]float64, len(bars))
	for i := range bars {
		if i == 0 {
			clipped[i] = market.Undefined
			continue
		}
		gap := bars[i-1].Low - bars[i].High
		if gap < 0 {
			gap = 0
		}
		clipped[i] = gap
	}
	out := undefinedSlice(len(bars))
	if lookback < 1 || len(bars) <= lookback {
		return out
	}
	// The first defined gap sits at index 1, so the first full lookback
	// window closes at index `lookback`.
	for i := lookback; i < len(bars); i++ {
		best := clipped[i-lookback+1]
		for j := i - lookback + 2; j <= i; j++ {
			if clipped[j] > best {
				best = clipped[j]
			}
		}
		out[i] = best
	}
	return out
}
