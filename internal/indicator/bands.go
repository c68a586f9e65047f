package indicator

import "quantbot-go/internal/market"

// Bands holds Bollinger band columns aligned to the input series.
type Bands struct {
	Mid   []float64
	Upper []float64
	Lower []float64
}

// Bollinger computes trailing mean ± k standard deviations (population,
// ddof=0) over the given window. Mid is the plain trailing mean, so the
// bands are symmetric around it by construction.
func Bollinger(series []float64, window int, k float64) Bands {
	mid := SMA(series, window)
	std := RollingStd(series, window)
	upper := make([]float64, len(series))
	lower := make([]float64, len(series))
	for i := range series {
		if !market.Defined(mid[i]) || !market.Defined(std[i]) {
			upper[i] = market.Undefined
			lower[i] = market.Undefined
			continue
		}
		upper[i] = mid[i] + k*std[i]
		lower[i] = mid[i] - k*std[i]
	}
	return Bands{Mid: mid, Upper: upper, Lower: lower}
}
