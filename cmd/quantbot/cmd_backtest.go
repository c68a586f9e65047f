package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quantbot-go/internal/backtest"
	"quantbot-go/internal/broker"
	"quantbot-go/internal/config"
	"quantbot-go/internal/llm"
	"quantbot-go/internal/sentiment"
	"quantbot-go/internal/strategy"
)

var (
	backtestHeadlines string
	backtestExplain   bool
	backtestRecord    string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay strategies over cached or CSV history",
	Long: `Replay the enabled strategies bar by bar through the paper broker
and print the performance report. The run is deterministic: the same
history and configuration always produce the same trades.`,
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.Flags().StringVar(&backtestHeadlines, "headlines", "", "Text file of news headlines, one per line, scored for sentiment")
	backtestCmd.Flags().BoolVar(&backtestExplain, "explain", false, "Log a prose explanation for every trade")
	backtestCmd.Flags().StringVar(&backtestRecord, "record", "", "Append executed trades to this JSONL file")
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	bars, err := loadHistory(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	strategies := strategy.Build(cfg.Strategies.Enabled, cfg.Strategies.Params())
	engine, err := backtest.New(backtest.Config{
		StartingCash:   cfg.Backtest.StartingCash,
		CommissionRate: cfg.Backtest.CommissionRate,
		RiskPerTrade:   cfg.Backtest.RiskPerTrade,
		WarmupBars:     cfg.Backtest.WarmupBars,
	}, strategies, log)
	if err != nil {
		return err
	}

	result, err := engine.Run(bars)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	if backtestRecord != "" {
		if err := recordTrades(backtestRecord, result); err != nil {
			return fmt.Errorf("record trades: %w", err)
		}
		log.Info().Str("path", backtestRecord).Int("trades", len(result.Trades)).Msg("trades recorded")
	}

	compound := scoreHeadlines(cfg, log)
	if backtestExplain || cfg.LLM.Enabled {
		explainTrades(log, result, compound)
	}

	fmt.Printf("final_value=%.2f pnl=%.2f return_pct=%.2f trades=%d\n",
		result.Report.FinalValue, result.Report.PnL, result.Report.ReturnPct, result.Report.Trades)
	return nil
}

// scoreHeadlines returns the mean compound sentiment across the
// --headlines file, keeping only headlines whose score magnitude clears
// the configured confidence floor. Returns 0 when sentiment is disabled
// or no file is given.
func scoreHeadlines(cfg *config.Config, log zerolog.Logger) float64 {
	if !cfg.Sentiment.Enabled || backtestHeadlines == "" {
		return 0
	}
	raw, err := os.ReadFile(backtestHeadlines)
	if err != nil {
		log.Warn().Err(err).Str("path", backtestHeadlines).Msg("headlines unreadable, sentiment skipped")
		return 0
	}
	var lines []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	compound, kept := sentiment.AggregateCompound(
		sentiment.NewLexiconScorer(), lines, cfg.Sentiment.MinConfidence)
	log.Info().
		Float64("compound", compound).
		Int("headlines", len(lines)).
		Int("kept", kept).
		Msg("news sentiment scored")
	return compound
}

func recordTrades(path string, result *backtest.Result) error {
	recorder, err := broker.NewJSONLRecorder(path)
	if err != nil {
		return err
	}
	defer recorder.Close()
	for _, tr := range result.Trades {
		if err := recorder.Record(tr); err != nil {
			return err
		}
	}
	return nil
}

func explainTrades(log zerolog.Logger, result *backtest.Result, compound float64) {
	explainer := llm.NewTemplateExplainer()
	for _, tr := range result.Trades {
		text, err := explainer.Explain(llm.TradeContext{
			Ts:         tr.Ts,
			Strategy:   tr.Strategy,
			Side:       string(tr.Side),
			Size:       tr.Size,
			Price:      tr.Price,
			Confidence: tr.Confidence,
			Reason:     tr.Reason,
			Compound:   compound,
		})
		if err != nil {
			log.Warn().Err(err).Str("trade", tr.ID).Msg("explanation failed")
			continue
		}
		log.Info().Str("trade", tr.ID).Msg(text)
	}
}
