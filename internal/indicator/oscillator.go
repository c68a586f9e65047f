package indicator

// NeutralRSI is the midpoint emitted while the oscillator window is warming
// up or when the loss average is zero. A neutral default keeps warmup bars
// from reading as extreme momentum.
const NeutralRSI = 50.0

// RSI computes the relative strength index over a trailing window of price
// deltas, scaled to [0,100]. Sub-window indices and zero-loss windows yield
// NeutralRSI instead of an undefined or infinite ratio.
func RSI(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		out[i] = NeutralRSI
	}
	if period < 1 || len(series) <= period {
		return out
	}

	gains := make([]float64, len(series))
	losses := make([]float64, len(series))
	for i := 1; i < len(series); i++ {
		delta := series[i] - series[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	// Trailing mean over the last `period` deltas; the first delta exists at
	// index 1, so the first full window closes at index `period`.
	var gainSum, lossSum float64
	for i := 1; i < len(series); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		if avgLoss == 0 {
			out[i] = NeutralRSI
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
