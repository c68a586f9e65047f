package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quantbot-go/internal/config"
	"quantbot-go/internal/data"
	"quantbot-go/internal/market"
)

var (
	fetchDays   int
	fetchCSVOut string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download candle history into the local cache",
	Long: `Download closed candles for the configured symbol and interval from
the exchange REST API and store them in the SQLite cache. Use --csv to also
write the history as a CSV file.`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().IntVar(&fetchDays, "days", 0, "Lookback window in days (default from config)")
	fetchCmd.Flags().StringVar(&fetchCSVOut, "csv", "", "Also write fetched bars to this CSV path")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	days := cfg.Data.LookbackDays
	if fetchDays > 0 {
		days = fetchDays
	}
	end := time.Now().UTC().Truncate(time.Hour)
	start := end.AddDate(0, 0, -days)

	ctx := cmd.Context()
	client := data.NewKlineClient(log)
	log.Info().
		Str("symbol", cfg.Data.Symbol).
		Str("interval", cfg.Data.Interval).
		Time("start", start).
		Time("end", end).
		Msg("fetching history")
	bars, err := client.FetchRange(ctx, cfg.Data.Symbol, cfg.Data.Interval, start, end)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("exchange returned no bars for %s %s", cfg.Data.Symbol, cfg.Data.Interval)
	}

	if err := cacheBars(ctx, cfg, bars); err != nil {
		return err
	}
	if fetchCSVOut != "" {
		if err := data.WriteCSV(fetchCSVOut, bars); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		log.Info().Str("path", fetchCSVOut).Msg("csv written")
	}
	log.Info().Int("bars", len(bars)).Msg("history cached")
	return nil
}

func cacheBars(ctx context.Context, cfg *config.Config, bars market.History) error {
	store, err := data.OpenStore(cfg.Data.CachePath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Put(ctx, cfg.Data.Symbol, cfg.Data.Interval, bars)
}

// loadHistory resolves bar history for a run: an explicit CSV path wins,
// otherwise the cache is consulted.
func loadHistory(ctx context.Context, cfg *config.Config) (market.History, error) {
	if cfg.Data.CSVPath != "" {
		return data.LoadCSV(cfg.Data.CSVPath)
	}
	store, err := data.OpenStore(cfg.Data.CachePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	bars, err := store.Get(ctx, cfg.Data.Symbol, cfg.Data.Interval)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no cached bars for %s %s, run fetch first",
			cfg.Data.Symbol, cfg.Data.Interval)
	}
	return bars, nil
}
