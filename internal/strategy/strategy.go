// Package strategy contains the rule engines that turn a bar history into
// directional trade signals.
package strategy

import "quantbot-go/internal/market"

// Direction enumerates signal sides.
type Direction string

const (
	// Buy recommends opening or adding to a long position.
	Buy Direction = "buy"
	// Sell recommends opening or adding to a short position.
	Sell Direction = "sell"
)

// Signal expresses a single trade recommendation with a confidence score and
// a human-readable rationale. A strategy emits at most one per bar.
type Signal struct {
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
}

// Strategy is the capability shared by every rule engine: evaluate the full
// history up to and including the current bar and return a signal or nil.
// Implementations must be pure (no mutation of the input, no retained state)
// and must return nil rather than fail when the history is too short.
type Strategy interface {
	Name() string
	MinBars() int
	Evaluate(bars market.History) *Signal
}
