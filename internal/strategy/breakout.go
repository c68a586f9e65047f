package strategy

import (
	"quantbot-go/internal/indicator"
	"quantbot-go/internal/market"
)

// Breakout trades closes beyond the completed session range, confirmed by
// the VWAP side and a volume spike.
type Breakout struct {
	volumeMultiplier float64
}

// NewBreakout builds a session-range breakout strategy.
func NewBreakout(volumeMultiplier float64) *Breakout {
	if volumeMultiplier <= 0 {
		volumeMultiplier = 1.3
	}
	return &Breakout{volumeMultiplier: volumeMultiplier}
}

// Name returns the configured identifier for logging.
func (s *Breakout) Name() string { return "breakout" }

// MinBars reports the shortest history the strategy can evaluate.
func (s *Breakout) MinBars() int { return indicator.DefaultBreakVolMA + 1 }

// Evaluate fires when price escapes the session range on the VWAP side with
// volume above the trailing baseline. Undefined range or VWAP values (history
// before the first completed session, zero cumulative volume) compare false
// and suppress the signal.
func (s *Breakout) Evaluate(bars market.History) *Signal {
	if len(bars) < s.MinBars() {
		return nil
	}
	cols := indicator.Breakout(bars)
	last := len(bars) - 1
	latest := bars.Last()

	breakoutUp := latest.Close > cols.RangeHigh[last] && latest.Close > cols.VWAP[last]
	breakoutDown := latest.Close < cols.RangeLow[last] && latest.Close < cols.VWAP[last]
	volumeSpike := latest.Volume > s.volumeMultiplier*cols.VolumeMA[last]

	if breakoutUp && volumeSpike {
		return &Signal{
			Direction:  Buy,
			Confidence: 0.7,
			Reason:     "price breaks above session range high and VWAP with volume confirmation",
		}
	}
	if breakoutDown && volumeSpike {
		return &Signal{
			Direction:  Sell,
			Confidence: 0.7,
			Reason:     "price breaks below session range low and VWAP with volume confirmation",
		}
	}
	return nil
}
