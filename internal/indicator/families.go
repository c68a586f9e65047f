package indicator

import "quantbot-go/internal/market"

// Default periods shared by the indicator families and the feature matrix.
const (
	DefaultEMAFast      = 20
	DefaultEMASlow      = 50
	DefaultRSIPeriod    = 14
	DefaultBandPeriod   = 20
	DefaultBandWidth    = 2.0
	DefaultTrendVolMA   = 20
	DefaultBreakVolMA   = 30
	DefaultFlowVolMA    = 10
	DefaultGapLookback  = 5
	DefaultSessionStart = 0
	DefaultSessionEnd   = 6
)

// TrendColumns carries the derived series consumed by trend-following logic.
type TrendColumns struct {
	EMAFast  []float64
	EMASlow  []float64
	RSI      []float64
	OBV      []float64
	VolumeMA []float64
}

// Trend computes EMA alignment, oscillator, volume-flow, and volume baseline
// columns for the given history.
func Trend(bars market.History) TrendColumns {
	closes := bars.Closes()
	volumes := bars.Volumes()
	return TrendColumns{
		EMAFast:  EMA(closes, DefaultEMAFast),
		EMASlow:  EMA(closes, DefaultEMASlow),
		RSI:      RSI(closes, DefaultRSIPeriod),
		OBV:      OBV(closes, volumes),
		VolumeMA: SMA(volumes, DefaultTrendVolMA),
	}
}

// ReversionColumns carries band and oscillator series for mean reversion.
type ReversionColumns struct {
	Bands Bands
	RSI   []float64
}

// Reversion computes Bollinger bands and the oscillator for the given history.
func Reversion(bars market.History) ReversionColumns {
	closes := bars.Closes()
	return ReversionColumns{
		Bands: Bollinger(closes, DefaultBandPeriod, DefaultBandWidth),
		RSI:   RSI(closes, DefaultRSIPeriod),
	}
}

// BreakoutColumns carries session range, VWAP, and volume baseline series.
type BreakoutColumns struct {
	VWAP      []float64
	RangeHigh []float64
	RangeLow  []float64
	VolumeMA  []float64
}

// Breakout computes the session-range breakout columns for the given history.
func Breakout(bars market.History) BreakoutColumns {
	high, low := SessionRange(bars, SessionBounds{StartHour: DefaultSessionStart, EndHour: DefaultSessionEnd})
	return BreakoutColumns{
		VWAP:      VWAP(bars),
		RangeHigh: high,
		RangeLow:  low,
		VolumeMA:  SMA(bars.Volumes(), DefaultBreakVolMA),
	}
}

// OrderflowColumns carries signed volume flow and gap imbalance series.
type OrderflowColumns struct {
	DeltaVolume   []float64
	FairValueGap  []float64
	RollingVolume []float64
}

// Orderflow computes the liquidity/absorption columns for the given history.
func Orderflow(bars market.History) OrderflowColumns {
	return OrderflowColumns{
		DeltaVolume:   DeltaVolume(bars),
		FairValueGap:  FairValueGap(bars, DefaultGapLookback),
		RollingVolume: SMA(bars.Volumes(), DefaultFlowVolMA),
	}
}
