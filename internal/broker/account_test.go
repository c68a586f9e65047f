package broker

import (
	"math"
	"testing"
	"time"
)

func TestFillBuyAccounting(t *testing.T) {
	account := NewAccount(10000)

	commission, err := account.Fill(Buy, 1, 100, 0.00075)
	if err != nil {
		t.Fatalf("unexpected buy error: %v", err)
	}
	if math.Abs(commission-0.075) > 1e-12 {
		t.Fatalf("expected commission 0.075, got %.6f", commission)
	}
	// 10,000 − 100 − 0.075 = 9,899.925
	if math.Abs(account.Cash()-9899.925) > 1e-9 {
		t.Fatalf("expected cash 9899.925, got %.6f", account.Cash())
	}
	if account.Position() != 1 {
		t.Fatalf("expected position 1, got %.4f", account.Position())
	}
	if math.Abs(account.Equity()-(9899.925+100)) > 1e-9 {
		t.Fatalf("equity mismatch: %.6f", account.Equity())
	}
}

func TestFillSellAccounting(t *testing.T) {
	account := NewAccount(1000)
	if _, err := account.Fill(Sell, 2, 50, 0.001); err != nil {
		t.Fatalf("unexpected sell error: %v", err)
	}
	// 1000 + 100 − 0.1 = 1099.9, position short 2.
	if math.Abs(account.Cash()-1099.9) > 1e-9 {
		t.Fatalf("expected cash 1099.9, got %.6f", account.Cash())
	}
	if account.Position() != -2 {
		t.Fatalf("expected position -2, got %.4f", account.Position())
	}
	if account.CommissionPaid() < 0 {
		t.Fatalf("commission must never be negative")
	}
}

func TestFillRejectsBadOrders(t *testing.T) {
	account := NewAccount(1000)
	if _, err := account.Fill(Buy, 0, 100, 0); err == nil {
		t.Fatalf("expected size error")
	}
	if _, err := account.Fill(Buy, 1, 0, 0); err == nil {
		t.Fatalf("expected price error")
	}
	if _, err := account.Fill(Buy, 1, 100, -0.1); err == nil {
		t.Fatalf("expected commission rate error")
	}
	if _, err := account.Fill(Side("hold"), 1, 100, 0); err == nil {
		t.Fatalf("expected unknown side error")
	}
	if account.Cash() != 1000 || account.Position() != 0 {
		t.Fatalf("rejected orders must not mutate balances")
	}
}

func TestCheckIntegrity(t *testing.T) {
	account := NewAccount(1000)
	if err := account.CheckIntegrity(); err != nil {
		t.Fatalf("fresh account should pass: %v", err)
	}
	account.cash = math.NaN()
	if err := account.CheckIntegrity(); err == nil {
		t.Fatalf("NaN cash must be detected as corruption")
	}
}

func TestLedgerDeterministicIDs(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mk := func() []TradeRecord {
		l := NewLedger(4)
		l.Record(TradeRecord{Ts: ts, Strategy: "breakout", Side: Buy, Size: 1, Price: 100})
		l.Record(TradeRecord{Ts: ts.Add(time.Hour), Strategy: "orderflow", Side: Sell, Size: 2, Price: 101})
		return l.Snapshot()
	}
	a, b := mk(), mk()
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("expected 2 records per ledger")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("replayed ledger diverged at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
	if a[0].ID == a[1].ID {
		t.Fatalf("distinct trades must get distinct IDs")
	}
}

func TestLedgerSnapshotIsCopy(t *testing.T) {
	l := NewLedger(0)
	l.Record(TradeRecord{Ts: time.Now(), Strategy: "trend_following", Side: Buy, Size: 1, Price: 10})
	snap := l.Snapshot()
	snap[0].Size = 99
	if l.Snapshot()[0].Size == 99 {
		t.Fatalf("snapshot must not alias ledger storage")
	}
}
