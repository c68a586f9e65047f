package strategy

import (
	"fmt"

	"quantbot-go/internal/indicator"
	"quantbot-go/internal/market"
)

// TrendFollowing emits signals when EMA alignment, an oscillator rebound,
// and a volume spike all line up on the current bar.
type TrendFollowing struct {
	volumeThreshold float64
	rsiLower        float64
	rsiUpper        float64
}

// NewTrendFollowing builds a trend strategy with the given thresholds,
// falling back to sane defaults for non-positive values.
func NewTrendFollowing(volumeThreshold, rsiLower, rsiUpper float64) *TrendFollowing {
	if volumeThreshold <= 0 {
		volumeThreshold = 1.2
	}
	if rsiLower <= 0 {
		rsiLower = 30
	}
	if rsiUpper <= 0 {
		rsiUpper = 70
	}
	return &TrendFollowing{volumeThreshold: volumeThreshold, rsiLower: rsiLower, rsiUpper: rsiUpper}
}

// Name returns the configured identifier for logging.
func (s *TrendFollowing) Name() string { return "trend_following" }

// MinBars reports the shortest history the strategy can evaluate.
func (s *TrendFollowing) MinBars() int { return indicator.DefaultEMASlow + 1 }

// Evaluate checks EMA alignment, an RSI rebound through the configured bound,
// and volume above the trailing baseline.
func (s *TrendFollowing) Evaluate(bars market.History) *Signal {
	if len(bars) < s.MinBars() {
		return nil
	}
	cols := indicator.Trend(bars)
	last := len(bars) - 1
	prev := last - 1
	latest := bars.Last()

	bullish := cols.EMAFast[last] > cols.EMASlow[last]
	bearish := cols.EMAFast[last] < cols.EMASlow[last]
	reboundUp := cols.RSI[prev] < s.rsiLower && cols.RSI[last] >= s.rsiLower
	reboundDown := cols.RSI[prev] > s.rsiUpper && cols.RSI[last] <= s.rsiUpper

	// NaN baselines and zero-volume bars compare false: no confirmation.
	volumeSpike := latest.Volume > s.volumeThreshold*cols.VolumeMA[last]

	if bullish && reboundUp && volumeSpike {
		return &Signal{
			Direction:  Buy,
			Confidence: 0.75,
			Reason:     fmt.Sprintf("EMA bullish alignment with RSI rebound through %.0f and volume confirmation", s.rsiLower),
		}
	}
	if bearish && reboundDown && volumeSpike {
		return &Signal{
			Direction:  Sell,
			Confidence: 0.75,
			Reason:     fmt.Sprintf("EMA bearish alignment with RSI pullback through %.0f and volume confirmation", s.rsiUpper),
		}
	}
	return nil
}
