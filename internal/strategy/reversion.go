package strategy

import (
	"fmt"

	"quantbot-go/internal/indicator"
	"quantbot-go/internal/market"
)

// MeanReversion fades oscillator extremes confirmed by a close outside the
// Bollinger bands.
type MeanReversion struct {
	rsiLower float64
	rsiUpper float64
}

// NewMeanReversion builds a band/oscillator reversion strategy.
func NewMeanReversion(rsiLower, rsiUpper float64) *MeanReversion {
	if rsiLower <= 0 {
		rsiLower = 30
	}
	if rsiUpper <= 0 {
		rsiUpper = 70
	}
	return &MeanReversion{rsiLower: rsiLower, rsiUpper: rsiUpper}
}

// Name returns the configured identifier for logging.
func (s *MeanReversion) Name() string { return "mean_reversion" }

// MinBars reports the shortest history the strategy can evaluate.
func (s *MeanReversion) MinBars() int { return indicator.DefaultBandPeriod + 1 }

// Evaluate fires when RSI sits beyond a bound while the close escapes the
// matching Bollinger band.
func (s *MeanReversion) Evaluate(bars market.History) *Signal {
	if len(bars) < s.MinBars() {
		return nil
	}
	cols := indicator.Reversion(bars)
	last := len(bars) - 1
	close := bars.Last().Close

	if cols.RSI[last] < s.rsiLower && close < cols.Bands.Lower[last] {
		return &Signal{
			Direction:  Buy,
			Confidence: 0.65,
			Reason:     fmt.Sprintf("RSI oversold below %.0f with price under the lower band", s.rsiLower),
		}
	}
	if cols.RSI[last] > s.rsiUpper && close > cols.Bands.Upper[last] {
		return &Signal{
			Direction:  Sell,
			Confidence: 0.65,
			Reason:     fmt.Sprintf("RSI overbought above %.0f with price over the upper band", s.rsiUpper),
		}
	}
	return nil
}
