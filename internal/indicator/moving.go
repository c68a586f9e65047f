// Package indicator computes derived series from OHLCV history. Every
// function is pure, returns a slice aligned to the input index, and uses only
// data at or before each index. Values whose trailing window has not seen
// enough bars are market.Undefined.
package indicator

import (
	"math"

	"quantbot-go/internal/market"
)

// EMA computes an exponential moving average with the given span using the
// unadjusted recursive form seeded by the first value of the series.
func EMA(series []float64, span int) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = alpha*series[i] + (1-alpha)*out[i-1]
	}
	return out
}

// SMA computes a plain trailing mean over the given window.
func SMA(series []float64, window int) []float64 {
	out := undefinedSlice(len(series))
	if window < 1 || len(series) < window {
		return out
	}
	var sum float64
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd computes the trailing population standard deviation (ddof=0)
// over the given window.
func RollingStd(series []float64, window int) []float64 {
	out := undefinedSlice(len(series))
	if window < 1 || len(series) < window {
		return out
	}
	for i := window - 1; i < len(series); i++ {
		var mean float64
		for j := i - window + 1; j <= i; j++ {
			mean += series[j]
		}
		mean /= float64(window)
		var variance float64
		for j := i - window + 1; j <= i; j++ {
			d := series[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(window))
	}
	return out
}

// RollingMax computes the trailing maximum over the given window.
func RollingMax(series []float64, window int) []float64 {
	out := undefinedSlice(len(series))
	if window < 1 || len(series) < window {
		return out
	}
	for i := window - 1; i < len(series); i++ {
		best := series[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			if series[j] > best {
				best = series[j]
			}
		}
		out[i] = best
	}
	return out
}

func undefinedSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = market.Undefined
	}
	return out
}
