package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"quantbot-go/internal/api"
	"quantbot-go/internal/backtest"
	"quantbot-go/internal/metrics"
	"quantbot-go/internal/strategy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a backtest and serve results over HTTP",
	Long: `Run the configured backtest once, then expose the configuration,
strategy set, report, trades, and per-bar snapshots over the HTTP API.
Prometheus metrics are served on the configured metrics address.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	bars, err := loadHistory(ctx, cfg)
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

	server := api.NewServer(cfg, strategies, log)
	server.SetResult(result)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(cfg.App.APIAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return nil
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	}
}
