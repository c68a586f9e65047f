// Package config exposes strongly typed application configuration structs
// loaded from YAML. Decoding is strict: unknown keys are rejected, and
// Validate fails fast before any run starts.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quantbot-go/internal/ml"
	"quantbot-go/internal/strategy"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	APIAddr     string `yaml:"api_addr"`
	LogLevel    string `yaml:"log_level"`
}

// SupportedIntervals enumerates the bar intervals the data layer accepts.
var SupportedIntervals = []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d"}

// Data describes where bars come from and how they are cached.
type Data struct {
	Symbol       string `yaml:"symbol"`
	Interval     string `yaml:"interval"`
	LookbackDays int    `yaml:"lookback_days"`
	CSVPath      string `yaml:"csv_path"`
	CachePath    string `yaml:"cache_path"`
}

// Backtest encodes the simulator's account and loop settings.
type Backtest struct {
	StartingCash   float64 `yaml:"starting_cash"`
	CommissionRate float64 `yaml:"commission_rate"`
	RiskPerTrade   float64 `yaml:"risk_per_trade"`
	WarmupBars     int     `yaml:"warmup_bars"`
}

// TrendParams groups tunable knobs for the trend-following strategy.
type TrendParams struct {
	VolumeThreshold float64 `yaml:"volume_threshold"`
	RSILower        float64 `yaml:"rsi_lower"`
	RSIUpper        float64 `yaml:"rsi_upper"`
}

// BreakoutParams groups tunable knobs for the breakout strategy.
type BreakoutParams struct {
	VolumeMultiplier float64 `yaml:"volume_multiplier"`
}

// ReversionParams groups tunable knobs for the mean-reversion strategy.
type ReversionParams struct {
	RSILower float64 `yaml:"rsi_lower"`
	RSIUpper float64 `yaml:"rsi_upper"`
}

// OrderflowParams groups tunable knobs for the orderflow strategy.
type OrderflowParams struct {
	DeltaFraction float64 `yaml:"delta_fraction"`
}

// Strategies selects the active strategy set and its thresholds.
type Strategies struct {
	Enabled   []string        `yaml:"enabled"`
	Trend     TrendParams     `yaml:"trend"`
	Breakout  BreakoutParams  `yaml:"breakout"`
	Reversion ReversionParams `yaml:"reversion"`
	Orderflow OrderflowParams `yaml:"orderflow"`
}

// Params flattens the per-strategy knobs into the factory's parameter bundle.
func (s Strategies) Params() strategy.Params {
	return strategy.Params{
		TrendVolumeThreshold:     s.Trend.VolumeThreshold,
		TrendRSILower:            s.Trend.RSILower,
		TrendRSIUpper:            s.Trend.RSIUpper,
		BreakoutVolumeMultiplier: s.Breakout.VolumeMultiplier,
		ReversionRSILower:        s.Reversion.RSILower,
		ReversionRSIUpper:        s.Reversion.RSIUpper,
		OrderflowDeltaFraction:   s.Orderflow.DeltaFraction,
	}
}

// Model wires the optional classifier: the closed hyperparameter set plus
// the labeling horizon and threshold.
type Model struct {
	Enabled         bool    `yaml:"enabled"`
	ml.Hyperparams  `yaml:",inline"`
	Horizon         int     `yaml:"horizon"`
	ReturnThreshold float64 `yaml:"return_threshold"`
}

// Sentiment configures the optional text-scoring collaborator.
type Sentiment struct {
	Enabled       bool    `yaml:"enabled"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// LLM configures the optional explanation collaborator.
type LLM struct {
	Enabled bool `yaml:"enabled"`
}

// Config collects every configuration leaf.
type Config struct {
	App        App        `yaml:"app"`
	Data       Data       `yaml:"data"`
	Backtest   Backtest   `yaml:"backtest"`
	Strategies Strategies `yaml:"strategies"`
	Model      Model      `yaml:"model"`
	Sentiment  Sentiment  `yaml:"sentiment"`
	LLM        LLM        `yaml:"llm"`
}

// Load reads a YAML file from disk and hydrates a Config struct, rejecting
// unknown keys.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	var config Config
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Validate checks the whole tree and reports the first violation.
func (c *Config) Validate() error {
	if !intervalSupported(c.Data.Interval) {
		return fmt.Errorf("unsupported interval: %q", c.Data.Interval)
	}
	if c.Data.Symbol == "" {
		return fmt.Errorf("data symbol must be set")
	}

	if c.Backtest.StartingCash <= 0 {
		return fmt.Errorf("starting_cash must be positive, got %f", c.Backtest.StartingCash)
	}
	if c.Backtest.CommissionRate < 0 {
		return fmt.Errorf("commission_rate must be non-negative, got %f", c.Backtest.CommissionRate)
	}
	if c.Backtest.RiskPerTrade <= 0 || c.Backtest.RiskPerTrade > 1 {
		return fmt.Errorf("risk_per_trade must be in (0,1], got %f", c.Backtest.RiskPerTrade)
	}
	if c.Backtest.WarmupBars < 2 {
		return fmt.Errorf("warmup_bars must be at least 2, got %d", c.Backtest.WarmupBars)
	}

	known := map[string]bool{}
	for _, kind := range strategy.AllKinds() {
		known[kind] = true
	}
	for _, kind := range c.Strategies.Enabled {
		if !known[kind] {
			return fmt.Errorf("unknown strategy %q", kind)
		}
	}
	for name, bounds := range map[string][2]float64{
		"trend":     {c.Strategies.Trend.RSILower, c.Strategies.Trend.RSIUpper},
		"reversion": {c.Strategies.Reversion.RSILower, c.Strategies.Reversion.RSIUpper},
	} {
		lower, upper := bounds[0], bounds[1]
		if lower < 0 || upper > 100 || lower >= upper {
			return fmt.Errorf("%s oscillator bounds invalid: lower=%f upper=%f", name, lower, upper)
		}
	}

	if c.Model.Enabled {
		if err := c.Model.Hyperparams.Validate(); err != nil {
			return fmt.Errorf("model: %w", err)
		}
		if c.Model.Horizon < 1 {
			return fmt.Errorf("model horizon must be at least 1, got %d", c.Model.Horizon)
		}
		if c.Model.ReturnThreshold <= 0 {
			return fmt.Errorf("model return_threshold must be positive, got %f", c.Model.ReturnThreshold)
		}
	}
	if c.Sentiment.Enabled && (c.Sentiment.MinConfidence < 0 || c.Sentiment.MinConfidence > 1) {
		return fmt.Errorf("sentiment min_confidence must be in [0,1], got %f", c.Sentiment.MinConfidence)
	}
	return nil
}

func intervalSupported(interval string) bool {
	for _, iv := range SupportedIntervals {
		if iv == interval {
			return true
		}
	}
	return false
}
