package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "quantbot-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.Data.Symbol != "BTCUSDT" || cfg.Data.Interval != "1h" {
		t.Fatalf("unexpected data config: %+v", cfg.Data)
	}
	if cfg.Backtest.StartingCash != 10000 {
		t.Fatalf("unexpected starting cash: %.2f", cfg.Backtest.StartingCash)
	}
	if cfg.Backtest.CommissionRate != 0.00075 {
		t.Fatalf("unexpected commission rate: %f", cfg.Backtest.CommissionRate)
	}
	if len(cfg.Strategies.Enabled) != 4 {
		t.Fatalf("expected 4 enabled strategies, got %+v", cfg.Strategies.Enabled)
	}
	if cfg.Strategies.Trend.VolumeThreshold != 1.2 {
		t.Fatalf("unexpected trend volume threshold: %f", cfg.Strategies.Trend.VolumeThreshold)
	}
	if !cfg.Model.Enabled || cfg.Model.NEstimators != 200 || cfg.Model.Seed != 42 {
		t.Fatalf("unexpected model config: %+v", cfg.Model)
	}
	if cfg.Model.Horizon != 3 || cfg.Model.ReturnThreshold != 0.002 {
		t.Fatalf("unexpected labeling config: %+v", cfg.Model)
	}
	if !cfg.Sentiment.Enabled || cfg.Sentiment.MinConfidence != 0.55 {
		t.Fatalf("unexpected sentiment config: %+v", cfg.Sentiment)
	}
	if cfg.LLM.Enabled {
		t.Fatalf("llm should be disabled in fixture")
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("fixture config must validate: %v", err)
	}

	params := cfg.Strategies.Params()
	if params.TrendRSILower != 30 || params.BreakoutVolumeMultiplier != 1.3 {
		t.Fatalf("params bundle mismatch: %+v", params)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "app:\n  name: x\nmodel:\n  enabled: true\n  n_trees: 10\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("unknown model key must be rejected at decode time")
	}
}

func TestValidateFailures(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join("testdata", "config.yaml"))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unsupported interval", func(c *Config) { c.Data.Interval = "7m" }},
		{"empty symbol", func(c *Config) { c.Data.Symbol = "" }},
		{"zero cash", func(c *Config) { c.Backtest.StartingCash = 0 }},
		{"negative commission", func(c *Config) { c.Backtest.CommissionRate = -1 }},
		{"risk too high", func(c *Config) { c.Backtest.RiskPerTrade = 2 }},
		{"warmup too low", func(c *Config) { c.Backtest.WarmupBars = 1 }},
		{"unknown strategy", func(c *Config) { c.Strategies.Enabled = []string{"momo"} }},
		{"inverted rsi bounds", func(c *Config) { c.Strategies.Trend.RSILower = 80 }},
		{"bad model depth", func(c *Config) { c.Model.MaxDepth = 0 }},
		{"bad horizon", func(c *Config) { c.Model.Horizon = 0 }},
		{"bad sentiment confidence", func(c *Config) { c.Sentiment.MinConfidence = 1.5 }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
