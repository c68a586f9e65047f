package strategy

import (
	"math"

	"quantbot-go/internal/indicator"
	"quantbot-go/internal/market"
)

// Orderflow trades liquidity sweeps absorbed by signed volume: a new extreme
// versus the previous bar whose delta-volume moves the other way hard enough.
type Orderflow struct {
	deltaFraction float64
}

// NewOrderflow builds an absorption strategy. deltaFraction is the minimum
// delta-volume move relative to |previous delta| required for confirmation.
func NewOrderflow(deltaFraction float64) *Orderflow {
	if deltaFraction <= 0 {
		deltaFraction = 0.05
	}
	return &Orderflow{deltaFraction: deltaFraction}
}

// Name returns the configured identifier for logging.
func (s *Orderflow) Name() string { return "orderflow" }

// MinBars reports the shortest history the strategy can evaluate.
func (s *Orderflow) MinBars() int { return 2 }

// Evaluate fires on a sweep of the previous bar's extreme with delta-volume
// absorption on the opposite side.
func (s *Orderflow) Evaluate(bars market.History) *Signal {
	if len(bars) < s.MinBars() {
		return nil
	}
	cols := indicator.Orderflow(bars)
	last := len(bars) - 1
	latest, prev := bars.Last(), bars.Prev()
	deltaNow, deltaPrev := cols.DeltaVolume[last], cols.DeltaVolume[last-1]
	step := s.deltaFraction * math.Abs(deltaPrev)

	absorptionBuy := latest.Low < prev.Low &&
		latest.Close > prev.Close &&
		deltaNow > deltaPrev+step
	absorptionSell := latest.High > prev.High &&
		latest.Close < prev.Close &&
		deltaNow < deltaPrev-step

	if absorptionBuy {
		return &Signal{
			Direction:  Buy,
			Confidence: 0.72,
			Reason:     "liquidity sweep with delta-volume absorption on the bid",
		}
	}
	if absorptionSell {
		return &Signal{
			Direction:  Sell,
			Confidence: 0.72,
			Reason:     "liquidity sweep with delta-volume absorption on the ask",
		}
	}
	return nil
}
