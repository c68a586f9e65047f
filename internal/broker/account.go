// Package broker simulates the single-asset account mutated by the backtest
// engine: cash, signed position, cumulative commission, and equity.
package broker

import (
	"fmt"
	"math"
)

// Side enumerates order directions.
type Side string

const (
	// Buy increases the signed position.
	Buy Side = "buy"
	// Sell decreases the signed position.
	Sell Side = "sell"
)

// Account tracks simulated balances. It is owned exclusively by the engine's
// control loop and is not safe for concurrent mutation.
type Account struct {
	startingCash   float64
	cash           float64
	position       float64
	commissionPaid float64
	lastClose      float64
}

// NewAccount initializes the account with the configured starting cash.
func NewAccount(startingCash float64) *Account {
	return &Account{startingCash: startingCash, cash: startingCash}
}

// StartingCash returns the initial bankroll.
func (a *Account) StartingCash() float64 { return a.startingCash }

// Cash returns the current cash balance.
func (a *Account) Cash() float64 { return a.cash }

// Position returns the signed position size (positive long, negative short).
func (a *Account) Position() float64 { return a.position }

// CommissionPaid returns cumulative commission debited so far.
func (a *Account) CommissionPaid() float64 { return a.commissionPaid }

// Equity values the account at the last marked close.
func (a *Account) Equity() float64 { return a.cash + a.position*a.lastClose }

// Mark updates the valuation price used by Equity.
func (a *Account) Mark(close float64) { a.lastClose = close }

// Fill executes a market order at the given price: buys debit cash by
// notional plus commission, sells credit cash by notional minus commission.
// Commission is proportional to notional and never negative.
func (a *Account) Fill(side Side, size, price, commissionRate float64) (commission float64, err error) {
	if size <= 0 {
		return 0, fmt.Errorf("fill size must be positive, got %f", size)
	}
	if price <= 0 {
		return 0, fmt.Errorf("fill price must be positive, got %f", price)
	}
	if commissionRate < 0 {
		return 0, fmt.Errorf("commission rate must be non-negative, got %f", commissionRate)
	}

	notional := size * price
	commission = commissionRate * notional

	switch side {
	case Buy:
		a.cash -= notional + commission
		a.position += size
	case Sell:
		a.cash += notional - commission
		a.position -= size
	default:
		return 0, fmt.Errorf("unknown order side %q", side)
	}
	a.commissionPaid += commission
	a.lastClose = price
	return commission, nil
}

// CheckIntegrity detects corrupted balances. Non-finite values indicate an
// accounting bug and abort the run.
func (a *Account) CheckIntegrity() error {
	for name, v := range map[string]float64{
		"cash":       a.cash,
		"position":   a.position,
		"commission": a.commissionPaid,
		"equity":     a.Equity(),
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("broker state corrupted: %s is %f (cash=%f position=%f commission=%f)",
				name, v, a.cash, a.position, a.commissionPaid)
		}
	}
	return nil
}
