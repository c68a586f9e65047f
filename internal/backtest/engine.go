// Package backtest replays a bar history through the strategy set and a
// simulated broker, producing trade records, per-bar signal snapshots, and
// summary metrics.
package backtest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"quantbot-go/internal/broker"
	"quantbot-go/internal/market"
	"quantbot-go/internal/metrics"
	"quantbot-go/internal/risk"
	"quantbot-go/internal/strategy"
)

// DefaultWarmupBars is the minimum point-in-time history length before any
// strategy is trusted; indicators are unreliable below it.
const DefaultWarmupBars = 50

// Config carries the engine's tunables. Validate runs before any bar is
// processed so configuration errors fail fast.
type Config struct {
	StartingCash   float64
	CommissionRate float64
	RiskPerTrade   float64
	WarmupBars     int
}

// Validate rejects impossible configurations.
func (c Config) Validate() error {
	if c.StartingCash <= 0 {
		return fmt.Errorf("starting cash must be positive, got %f", c.StartingCash)
	}
	if c.CommissionRate < 0 {
		return fmt.Errorf("commission rate must be non-negative, got %f", c.CommissionRate)
	}
	if c.RiskPerTrade <= 0 || c.RiskPerTrade > 1 {
		return fmt.Errorf("risk per trade must be in (0,1], got %f", c.RiskPerTrade)
	}
	if c.WarmupBars < 2 {
		return fmt.Errorf("warmup bars must be at least 2, got %d", c.WarmupBars)
	}
	return nil
}

// StrategySnapshot records one strategy's outcome on one bar.
type StrategySnapshot struct {
	Strategy string           `json:"strategy"`
	Signal   *strategy.Signal `json:"signal"` // nil when no actionable condition
}

// BarSnapshot is the per-bar observability record exposed to callers.
type BarSnapshot struct {
	Ts      time.Time          `json:"ts"`
	Close   float64            `json:"close"`
	Equity  float64            `json:"equity"`
	Signals []StrategySnapshot `json:"signals,omitempty"`
}

// Report summarizes a completed run.
type Report struct {
	FinalValue float64 `json:"final_value"`
	PnL        float64 `json:"pnl"`
	ReturnPct  float64 `json:"return_pct"`
	Trades     int     `json:"trades"`
}

// Result bundles everything a run produces.
type Result struct {
	Report    Report               `json:"report"`
	Trades    []broker.TradeRecord `json:"trades"`
	Snapshots []BarSnapshot        `json:"snapshots"`
}

// Engine is the single-threaded replay loop. Broker state is owned
// exclusively by Run's control flow; nothing outside mutates it.
type Engine struct {
	cfg        Config
	strategies []strategy.Strategy
	sizer      risk.Sizer
	log        zerolog.Logger
}

// New validates the configuration and wires an engine.
func New(cfg Config, strategies []strategy.Strategy, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backtest config: %w", err)
	}
	return &Engine{
		cfg:        cfg,
		strategies: strategies,
		sizer:      risk.Sizer{RiskPerTrade: cfg.RiskPerTrade},
		log:        log,
	}, nil
}

// Run replays the history bar by bar. Each bar sees only the point-in-time
// prefix ending at itself. Strategy failures degrade to "no signal";
// corrupted broker state aborts the run.
func (e *Engine) Run(bars market.History) (*Result, error) {
	if err := bars.Validate(); err != nil {
		return nil, fmt.Errorf("backtest input: %w", err)
	}

	account := broker.NewAccount(e.cfg.StartingCash)
	ledger := broker.NewLedger(len(bars) / 10)
	snapshots := make([]BarSnapshot, 0, len(bars))

	for i := range bars {
		pit := bars[:i+1] // all bars with timestamp <= current
		current := pit.Last()
		metrics.BarsTotal.Inc()
		account.Mark(current.Close)

		snap := BarSnapshot{Ts: current.Ts, Close: current.Close}

		if len(pit) >= e.cfg.WarmupBars {
			for _, strat := range e.strategies {
				sig := e.evaluate(strat, pit)
				snap.Signals = append(snap.Signals, StrategySnapshot{Strategy: strat.Name(), Signal: sig})
				if sig == nil {
					continue
				}
				metrics.SignalsTotal.WithLabelValues(strat.Name(), string(sig.Direction)).Inc()
				e.execute(account, ledger, strat.Name(), sig, current)
			}
		}

		if err := account.CheckIntegrity(); err != nil {
			e.log.Error().
				Err(err).
				Time("bar", current.Ts).
				Float64("cash", account.Cash()).
				Float64("position", account.Position()).
				Float64("commission", account.CommissionPaid()).
				Int("trades", ledger.Len()).
				Msg("aborting run on corrupted broker state")
			return nil, err
		}

		snap.Equity = account.Equity()
		snapshots = append(snapshots, snap)
	}

	final := account.Equity()
	pnl := final - e.cfg.StartingCash
	report := Report{
		FinalValue: final,
		PnL:        pnl,
		ReturnPct:  pnl / e.cfg.StartingCash,
		Trades:     ledger.Len(),
	}
	e.log.Info().
		Float64("final_value", report.FinalValue).
		Float64("pnl", report.PnL).
		Float64("return_pct", report.ReturnPct).
		Int("trades", report.Trades).
		Msg("backtest completed")

	return &Result{Report: report, Trades: ledger.Snapshot(), Snapshots: snapshots}, nil
}

// evaluate isolates a single strategy evaluation: a panic is logged, counted,
// and degraded to "no signal" so the run continues.
func (e *Engine) evaluate(strat strategy.Strategy, pit market.History) (sig *strategy.Signal) {
	defer func() {
		if r := recover(); r != nil {
			metrics.StrategyErrorsTotal.WithLabelValues(strat.Name()).Inc()
			e.log.Error().
				Str("strategy", strat.Name()).
				Time("bar", pit.Last().Ts).
				Interface("panic", r).
				Msg("strategy evaluation failed, treating as no signal")
			sig = nil
		}
	}()
	return strat.Evaluate(pit)
}

// execute sizes and fills one signal at the current close. Sizing failures
// skip the order; they are logged, never fatal.
func (e *Engine) execute(account *broker.Account, ledger *broker.Ledger, name string, sig *strategy.Signal, current market.Bar) {
	size, err := e.sizer.Size(account.Equity(), current.Close)
	if err != nil {
		e.log.Warn().
			Str("strategy", name).
			Time("bar", current.Ts).
			Float64("close", current.Close).
			Err(err).
			Msg("skipping order")
		return
	}

	side := broker.Buy
	if sig.Direction == strategy.Sell {
		side = broker.Sell
	}
	commission, err := account.Fill(side, size, current.Close, e.cfg.CommissionRate)
	if err != nil {
		e.log.Warn().Str("strategy", name).Err(err).Msg("fill rejected")
		return
	}
	metrics.TradesTotal.WithLabelValues(string(side)).Inc()

	record := ledger.Record(broker.TradeRecord{
		Ts:         current.Ts,
		Strategy:   name,
		Side:       side,
		Size:       size,
		Price:      current.Close,
		Commission: commission,
		CashAfter:  account.Cash(),
		PosAfter:   account.Position(),
		Confidence: sig.Confidence,
		Reason:     sig.Reason,
	})
	e.log.Info().
		Str("strategy", name).
		Str("side", string(side)).
		Float64("size", record.Size).
		Float64("price", record.Price).
		Float64("confidence", sig.Confidence).
		Str("reason", sig.Reason).
		Msg("executed signal")
}
