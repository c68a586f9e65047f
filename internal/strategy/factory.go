package strategy

import "strings"

// Params expresses the tunable knobs required by strategy constructors.
// Every threshold is configuration; nothing is hard-coded in the rules.
type Params struct {
	TrendVolumeThreshold float64
	TrendRSILower        float64
	TrendRSIUpper        float64

	BreakoutVolumeMultiplier float64

	ReversionRSILower float64
	ReversionRSIUpper float64

	OrderflowDeltaFraction float64
}

// Known strategy identifiers accepted by Build.
const (
	KindTrendFollowing = "trend_following"
	KindBreakout       = "breakout"
	KindMeanReversion  = "mean_reversion"
	KindOrderflow      = "orderflow"
)

// AllKinds lists every known strategy identifier in evaluation order.
func AllKinds() []string {
	return []string{KindTrendFollowing, KindBreakout, KindMeanReversion, KindOrderflow}
}

// Build returns the strategy implementations matching the requested kinds,
// preserving order and skipping unknown names. An empty request yields the
// full set.
func Build(kinds []string, params Params) []Strategy {
	if len(kinds) == 0 {
		kinds = AllKinds()
	}
	out := make([]Strategy, 0, len(kinds))
	for _, kind := range kinds {
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case KindTrendFollowing:
			out = append(out, NewTrendFollowing(params.TrendVolumeThreshold, params.TrendRSILower, params.TrendRSIUpper))
		case KindBreakout:
			out = append(out, NewBreakout(params.BreakoutVolumeMultiplier))
		case KindMeanReversion:
			out = append(out, NewMeanReversion(params.ReversionRSILower, params.ReversionRSIUpper))
		case KindOrderflow:
			out = append(out, NewOrderflow(params.OrderflowDeltaFraction))
		}
	}
	return out
}
