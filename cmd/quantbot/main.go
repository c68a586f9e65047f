package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quantbot-go/internal/config"
	"quantbot-go/internal/util"
)

var configPath string

// rootCmd is the base command for the quantbot CLI.
var rootCmd = &cobra.Command{
	Use:   "quantbot",
	Short: "Bar-driven signal generation and deterministic backtesting",
	Long: `quantbot evaluates rule-based trading strategies over candle history,
replays them through a deterministic paper broker, and serves the results
over HTTP. The same history and configuration always produce the same
trades.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to YAML configuration")
}

// setup loads .env overrides, the YAML config, and a logger at the
// configured level. Shared by every subcommand.
func setup() (*config.Config, zerolog.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	level := cfg.App.LogLevel
	if env := os.Getenv("QUANTBOT_LOG_LEVEL"); env != "" {
		level = env
	}
	log := util.NewLogger(level).With().Str("app", cfg.App.Name).Logger()
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
