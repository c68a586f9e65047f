package broker

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TradeRecord is an immutable log entry created when an order executes.
type TradeRecord struct {
	ID         string    `json:"id"`
	Ts         time.Time `json:"ts"`
	Strategy   string    `json:"strategy"`
	Side       Side      `json:"side"`
	Size       float64   `json:"size"`
	Price      float64   `json:"price"`
	Commission float64   `json:"commission"`
	CashAfter  float64   `json:"cash_after"`
	PosAfter   float64   `json:"position_after"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
}

// Ledger stores trade records in memory for later inspection.
type Ledger struct {
	records []TradeRecord
}

// NewLedger creates an empty ledger, optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{records: make([]TradeRecord, 0, capacity)}
}

// Record appends a trade, assigning a content-derived ID so that identical
// replays produce identical records.
func (l *Ledger) Record(r TradeRecord) TradeRecord {
	seed := fmt.Sprintf("%d|%s|%s|%d", len(l.records), r.Strategy, r.Side, r.Ts.UnixNano())
	r.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
	l.records = append(l.records, r)
	return r
}

// Len returns the number of recorded trades.
func (l *Ledger) Len() int { return len(l.records) }

// Snapshot returns a copy of the recorded trades.
func (l *Ledger) Snapshot() []TradeRecord {
	out := make([]TradeRecord, len(l.records))
	copy(out, l.records)
	return out
}
