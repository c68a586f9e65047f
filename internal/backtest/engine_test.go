package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"quantbot-go/internal/broker"
	"quantbot-go/internal/market"
	"quantbot-go/internal/strategy"
)

func flatHistory(n int, close float64) market.History {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	h := make(market.History, 0, n)
	for i := 0; i < n; i++ {
		h = append(h, market.Bar{
			Ts:     start.Add(time.Duration(i) * time.Hour),
			Open:   close,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: 10,
		})
	}
	return h
}

// scripted fires a fixed direction at chosen point-in-time lengths and
// records every history length it was handed.
type scripted struct {
	name    string
	fireAt  map[int]strategy.Direction
	seenLen []int
}

func (s *scripted) Name() string { return s.name }
func (s *scripted) MinBars() int { return 2 }
func (s *scripted) Evaluate(h market.History) *strategy.Signal {
	s.seenLen = append(s.seenLen, len(h))
	if dir, ok := s.fireAt[len(h)]; ok {
		return &strategy.Signal{Direction: dir, Confidence: 0.5, Reason: "scripted"}
	}
	return nil
}

type panicky struct{}

func (panicky) Name() string { return "panicky" }
func (panicky) MinBars() int { return 2 }
func (panicky) Evaluate(market.History) *strategy.Signal {
	panic("synthetic evaluation failure")
}

func baseConfig() Config {
	return Config{StartingCash: 10000, CommissionRate: 0.00075, RiskPerTrade: 0.01, WarmupBars: DefaultWarmupBars}
}

func TestConfigValidation(t *testing.T) {
	bad := []Config{
		{StartingCash: 0, CommissionRate: 0, RiskPerTrade: 0.01, WarmupBars: 50},
		{StartingCash: 100, CommissionRate: -0.1, RiskPerTrade: 0.01, WarmupBars: 50},
		{StartingCash: 100, CommissionRate: 0, RiskPerTrade: 0, WarmupBars: 50},
		{StartingCash: 100, CommissionRate: 0, RiskPerTrade: 1.5, WarmupBars: 50},
		{StartingCash: 100, CommissionRate: 0, RiskPerTrade: 0.01, WarmupBars: 1},
	}
	for i, cfg := range bad {
		if _, err := New(cfg, nil, zerolog.Nop()); err == nil {
			t.Fatalf("case %d: expected config error for %+v", i, cfg)
		}
	}
}

func TestShortHistoryExecutesNothing(t *testing.T) {
	strat := &scripted{name: "eager", fireAt: map[int]strategy.Direction{1: strategy.Buy}}
	engine, err := New(baseConfig(), []strategy.Strategy{strat}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := engine.Run(flatHistory(10, 100))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Report.Trades != 0 || res.Report.PnL != 0 {
		t.Fatalf("sub-warmup history must trade nothing: %+v", res.Report)
	}
	if len(strat.seenLen) != 0 {
		t.Fatalf("strategies must not be polled below warmup")
	}
	if len(res.Snapshots) != 10 {
		t.Fatalf("expected a snapshot per bar, got %d", len(res.Snapshots))
	}
}

func TestSingleBuyAccounting(t *testing.T) {
	// Equity 10,000 at close 100 with 1% risk sizes exactly 1 unit:
	// cash becomes 10,000 − 100 − 0.075 = 9,899.925.
	strat := &scripted{name: "one_shot", fireAt: map[int]strategy.Direction{50: strategy.Buy}}
	engine, err := New(baseConfig(), []strategy.Strategy{strat}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := engine.Run(flatHistory(60, 100))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Report.Trades != 1 {
		t.Fatalf("expected exactly one trade, got %d", res.Report.Trades)
	}
	trade := res.Trades[0]
	if trade.Side != broker.Buy || math.Abs(trade.Size-1) > 1e-9 || trade.Price != 100 {
		t.Fatalf("unexpected trade: %+v", trade)
	}
	if math.Abs(trade.CashAfter-9899.925) > 1e-9 {
		t.Fatalf("expected cash 9899.925 after fill, got %.6f", trade.CashAfter)
	}
	if math.Abs(trade.Commission-0.075) > 1e-12 {
		t.Fatalf("expected commission 0.075, got %.6f", trade.Commission)
	}
	// The ledger keeps the signal's rationale, not just the fill.
	if trade.Confidence != 0.5 || trade.Reason != "scripted" {
		t.Fatalf("trade lost signal rationale: %+v", trade)
	}
	// Flat price: final equity = cash + 1×100.
	if math.Abs(res.Report.FinalValue-(9899.925+100)) > 1e-9 {
		t.Fatalf("unexpected final value %.6f", res.Report.FinalValue)
	}
}

func TestCashRecomputableFromLedger(t *testing.T) {
	strat := &scripted{name: "busy", fireAt: map[int]strategy.Direction{
		50: strategy.Buy, 52: strategy.Sell, 55: strategy.Buy, 58: strategy.Sell, 59: strategy.Buy,
	}}
	cfg := baseConfig()
	engine, err := New(cfg, []strategy.Strategy{strat}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := engine.Run(flatHistory(60, 100))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Report.Trades != 5 {
		t.Fatalf("expected 5 trades, got %d", res.Report.Trades)
	}

	cash := cfg.StartingCash
	for _, tr := range res.Trades {
		notional := tr.Size * tr.Price
		if tr.Commission < 0 {
			t.Fatalf("negative commission in %+v", tr)
		}
		switch tr.Side {
		case broker.Buy:
			cash -= notional + tr.Commission
		case broker.Sell:
			cash += notional - tr.Commission
		}
		if math.Abs(cash-tr.CashAfter) > 1e-9 {
			t.Fatalf("ledger cash diverges at %s: recomputed %.9f vs recorded %.9f", tr.ID, cash, tr.CashAfter)
		}
	}
	lastTrade := res.Trades[len(res.Trades)-1]
	if math.Abs(res.Report.FinalValue-(cash+lastTrade.PosAfter*100)) > 1e-9 {
		t.Fatalf("final value %.9f does not match recomputed cash %.9f + position", res.Report.FinalValue, cash)
	}
}

func TestStrategyPanicIsolated(t *testing.T) {
	healthy := &scripted{name: "healthy", fireAt: map[int]strategy.Direction{55: strategy.Buy}}
	engine, err := New(baseConfig(), []strategy.Strategy{panicky{}, healthy}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := engine.Run(flatHistory(60, 100))
	if err != nil {
		t.Fatalf("a panicking strategy must not abort the run: %v", err)
	}
	if res.Report.Trades != 1 {
		t.Fatalf("healthy strategy should still trade, got %d trades", res.Report.Trades)
	}
	// The failed evaluation still appears as a no-signal snapshot entry.
	for _, snap := range res.Snapshots[DefaultWarmupBars-1:] {
		if len(snap.Signals) != 2 {
			t.Fatalf("expected both strategies in snapshot, got %d", len(snap.Signals))
		}
		if snap.Signals[0].Strategy != "panicky" || snap.Signals[0].Signal != nil {
			t.Fatalf("panicking strategy must snapshot as no-signal: %+v", snap.Signals[0])
		}
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() *Result {
		strat := &scripted{name: "busy", fireAt: map[int]strategy.Direction{
			50: strategy.Buy, 53: strategy.Sell, 57: strategy.Buy,
		}}
		engine, err := New(baseConfig(), []strategy.Strategy{strat}, zerolog.Nop())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		res, err := engine.Run(flatHistory(60, 100))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return res
	}
	a, b := run(), run()
	if a.Report != b.Report {
		t.Fatalf("reports diverged: %+v vs %+v", a.Report, b.Report)
	}
	if len(a.Trades) != len(b.Trades) {
		t.Fatalf("trade counts diverged")
	}
	for i := range a.Trades {
		if a.Trades[i] != b.Trades[i] {
			t.Fatalf("trade %d diverged: %+v vs %+v", i, a.Trades[i], b.Trades[i])
		}
	}
}

func TestPointInTimeHistoryOnly(t *testing.T) {
	strat := &scripted{name: "observer", fireAt: nil}
	cfg := baseConfig()
	cfg.WarmupBars = 2
	engine, err := New(cfg, []strategy.Strategy{strat}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := engine.Run(flatHistory(20, 100)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Polled from warmup onwards, each poll sees exactly the prefix ending
	// at the current bar.
	if len(strat.seenLen) != 19 {
		t.Fatalf("expected 19 evaluations, got %d", len(strat.seenLen))
	}
	for i, n := range strat.seenLen {
		if n != i+2 {
			t.Fatalf("evaluation %d saw %d bars, want %d", i, n, i+2)
		}
	}
}

func TestNearZeroCloseSkipsOrder(t *testing.T) {
	h := flatHistory(60, 100)
	// A broken quote: positive (passes data validation) but unpriceable.
	h[54].Close = 1e-12
	h[54].Open, h[54].High, h[54].Low = 1e-12, 1e-12, 1e-12
	strat := &scripted{name: "eager", fireAt: map[int]strategy.Direction{55: strategy.Buy}}
	engine, err := New(baseConfig(), []strategy.Strategy{strat}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := engine.Run(h)
	if err != nil {
		t.Fatalf("sizing failure must not crash the run: %v", err)
	}
	if res.Report.Trades != 0 {
		t.Fatalf("unpriceable close must skip the order, got %d trades", res.Report.Trades)
	}
}

func TestRejectsMalformedHistory(t *testing.T) {
	engine, err := New(baseConfig(), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := engine.Run(nil); err == nil {
		t.Fatalf("empty history must fail the run")
	}
	h := flatHistory(10, 100)
	h[5].Ts = h[4].Ts
	if _, err := engine.Run(h); err == nil {
		t.Fatalf("duplicate timestamps must fail the run")
	}
}
