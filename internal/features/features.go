// Package features joins the indicator families into one aligned table and
// derives forward-return labels for offline classifier training.
package features

import (
	"fmt"
	"time"

	"quantbot-go/internal/indicator"
	"quantbot-go/internal/market"
)

// Columns lists every feature column in table order.
var Columns = []string{
	"close",
	"volume",
	"ema_20",
	"ema_50",
	"rsi_14",
	"obv",
	"vwap",
	"range_high",
	"range_low",
	"bb_upper",
	"bb_lower",
	"delta_volume",
	"fair_value_gap",
}

// Label classes produced by Labels.
const (
	LabelBuy  = "buy"
	LabelSell = "sell"
	LabelHold = "hold"
)

// Row is one timestamped feature vector, ordered as Columns.
type Row struct {
	Ts     time.Time
	Values []float64
}

// Matrix joins all indicator families onto the bar index and keeps only rows
// where every feature column is defined. Rows stay in timestamp order.
func Matrix(bars market.History) ([]Row, error) {
	if err := bars.Validate(); err != nil {
		return nil, fmt.Errorf("feature matrix: %w", err)
	}
	trend := indicator.Trend(bars)
	breakout := indicator.Breakout(bars)
	reversion := indicator.Reversion(bars)
	orderflow := indicator.Orderflow(bars)

	rows := make([]Row, 0, len(bars))
	for i, b := range bars {
		values := []float64{
			b.Close,
			b.Volume,
			trend.EMAFast[i],
			trend.EMASlow[i],
			trend.RSI[i],
			trend.OBV[i],
			breakout.VWAP[i],
			breakout.RangeHigh[i],
			breakout.RangeLow[i],
			reversion.Bands.Upper[i],
			reversion.Bands.Lower[i],
			orderflow.DeltaVolume[i],
			orderflow.FairValueGap[i],
		}
		defined := true
		for _, v := range values {
			if !market.Defined(v) {
				defined = false
				break
			}
		}
		if defined {
			rows = append(rows, Row{Ts: b.Ts, Values: values})
		}
	}
	return rows, nil
}

// Labels derives the training class for each close: buy when the forward
// return over the horizon exceeds +threshold, sell below -threshold, hold
// otherwise. The trailing horizon indices have no forward close and carry an
// empty label.
func Labels(closes []float64, horizon int, threshold float64) []string {
	out := make([]string, len(closes))
	if horizon < 1 {
		return out
	}
	for i := 0; i+horizon < len(closes); i++ {
		if closes[i] == 0 {
			continue
		}
		ret := (closes[i+horizon] - closes[i]) / closes[i]
		switch {
		case ret > threshold:
			out[i] = LabelBuy
		case ret < -threshold:
			out[i] = LabelSell
		default:
			out[i] = LabelHold
		}
	}
	return out
}

// LabeledMatrix pairs each defined feature row with its forward-return label,
// dropping rows whose label is undefined.
func LabeledMatrix(bars market.History, horizon int, threshold float64) ([]Row, []string, error) {
	rows, err := Matrix(bars)
	if err != nil {
		return nil, nil, err
	}
	closes := make([]float64, len(rows))
	for i, r := range rows {
		closes[i] = r.Values[0]
	}
	labels := Labels(closes, horizon, threshold)

	outRows := make([]Row, 0, len(rows))
	outLabels := make([]string, 0, len(rows))
	for i := range rows {
		if labels[i] == "" {
			continue
		}
		outRows = append(outRows, rows[i])
		outLabels = append(outLabels, labels[i])
	}
	return outRows, outLabels, nil
}
