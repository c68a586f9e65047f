// Package risk sizes orders under the configured per-trade risk budget.
package risk

import (
	"errors"
	"math"
)

// ErrUnpriceable is returned when the close price cannot support sizing.
var ErrUnpriceable = errors.New("close price too small to size an order")

// minPrice guards the division: anything below this is treated as a broken
// quote rather than a tradable price.
const minPrice = 1e-9

// Sizer converts equity into an order size under a fixed risk fraction.
type Sizer struct {
	RiskPerTrade float64 // fraction of equity committed per trade, in (0,1]
}

// Size returns equity × risk fraction ÷ close. A zero, near-zero, or
// non-finite close yields ErrUnpriceable instead of a division blow-up.
func (s Sizer) Size(equity, close float64) (float64, error) {
	if close < minPrice || math.IsNaN(close) || math.IsInf(close, 0) {
		return 0, ErrUnpriceable
	}
	size := equity * s.RiskPerTrade / close
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return 0, ErrUnpriceable
	}
	return size, nil
}
