package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type TakeProfitRung struct {
	TargetPct float64 `yaml:"target_pct"`
	Fraction  float64 `yaml:"fraction"`
}

type Config struct {
	Mode        string   `yaml:"mode"`        // BACKTEST or PAPER
	DataSource  string   `yaml:"data_source"` // BINANCE, CSV or STATIC
	Symbols     []string `yaml:"symbols"`
	Interval    string   `yaml:"interval"`
	PollSeconds int      `yaml:"poll_seconds"`
	CSVDir      string   `yaml:"csv_dir"`

	LookbackBars   int     `yaml:"lookback_bars"`
	InitialBalance float64 `yaml:"initial_balance"`
	TradingFeePct  float64 `yaml:"trading_fee_pct"`

	Threshold struct {
		BasePct        float64 `yaml:"base_pct"`
		MinPct         float64 `yaml:"min_pct"`
		MaxPct         float64 `yaml:"max_pct"`
		VolatilityMult float64 `yaml:"volatility_multiplier"`
	} `yaml:"threshold"`

	Sizing struct {
		Unit          string  `yaml:"unit"` // FRACTION or ABSOLUTE
		MinSize       float64 `yaml:"min_position_size"`
		MaxSize       float64 `yaml:"max_position_size"`
		RiskPerTrade  float64 `yaml:"risk_per_trade"`
		KellyFraction float64 `yaml:"kelly_fraction"`
	} `yaml:"sizing"`

	Stop struct {
		InitialPct    float64 `yaml:"initial_pct"`
		TrailingPct   float64 `yaml:"trailing_pct"`
		ActivationPct float64 `yaml:"activation_pct"`
	} `yaml:"stop"`

	TakeProfit []TakeProfitRung `yaml:"take_profit"`

	MaxHoldingHours float64 `yaml:"max_holding_hours"` // 0 disables the time exit
	MinConfidence   float64 `yaml:"min_confidence"`

	Indicators struct {
		SMAWindows []int   `yaml:"sma_windows"`
		RSIPeriod  int     `yaml:"rsi_period"`
		BBWindow   int     `yaml:"bb_window"`
		BBStdDev   float64 `yaml:"bb_stddev"`
		ATRPeriod  int     `yaml:"atr_period"`
	} `yaml:"indicators"`

	LLM struct {
		Provider       string  `yaml:"provider"`
		Model          string  `yaml:"model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float32 `yaml:"temperature"`
		System         string  `yaml:"system"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"llm"`

	Portfolio struct {
		Path string `yaml:"path"`
	} `yaml:"portfolio"`
}

// Validate rejects any out-of-range risk parameter. Invalid values are never
// clamped into a "safe" range: silently loosening risk limits hides
// misconfiguration, so every violated bound is a load-time error.
func (c *Config) Validate() error {
	if c.Mode != "BACKTEST" && c.Mode != "PAPER" {
		return fmt.Errorf("invalid mode '%s': must be 'BACKTEST' or 'PAPER'", c.Mode)
	}
	if c.DataSource != "BINANCE" && c.DataSource != "CSV" && c.DataSource != "STATIC" {
		return fmt.Errorf("invalid data_source '%s': must be 'BINANCE', 'CSV' or 'STATIC'", c.DataSource)
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols cannot be empty")
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be positive, got %.2f", c.InitialBalance)
	}
	if c.TradingFeePct < 0 || c.TradingFeePct >= 100 {
		return fmt.Errorf("trading_fee_pct must be in [0,100), got %.4f", c.TradingFeePct)
	}
	if c.Threshold.BasePct <= 0 {
		return fmt.Errorf("threshold.base_pct must be positive, got %.4f", c.Threshold.BasePct)
	}
	if c.Threshold.MinPct <= 0 || c.Threshold.MinPct > c.Threshold.MaxPct {
		return fmt.Errorf("invalid threshold range: min_pct %.4f, max_pct %.4f", c.Threshold.MinPct, c.Threshold.MaxPct)
	}
	if c.Threshold.VolatilityMult <= 0 {
		return fmt.Errorf("threshold.volatility_multiplier must be positive, got %.4f", c.Threshold.VolatilityMult)
	}
	if c.Sizing.Unit != "FRACTION" && c.Sizing.Unit != "ABSOLUTE" {
		return fmt.Errorf("sizing.unit must be 'FRACTION' or 'ABSOLUTE', got '%s'", c.Sizing.Unit)
	}
	if c.Sizing.MinSize <= 0 || c.Sizing.MinSize > c.Sizing.MaxSize {
		return fmt.Errorf("invalid position size range: min %.4f, max %.4f", c.Sizing.MinSize, c.Sizing.MaxSize)
	}
	if c.Sizing.Unit == "FRACTION" && c.Sizing.MaxSize > 1 {
		return fmt.Errorf("sizing.max_position_size must be <= 1 in FRACTION unit, got %.4f", c.Sizing.MaxSize)
	}
	if c.Sizing.RiskPerTrade <= 0 || c.Sizing.RiskPerTrade > 1 {
		return fmt.Errorf("sizing.risk_per_trade must be in (0,1], got %.4f", c.Sizing.RiskPerTrade)
	}
	if c.Sizing.KellyFraction <= 0 || c.Sizing.KellyFraction > 1 {
		return fmt.Errorf("sizing.kelly_fraction must be in (0,1], got %.4f", c.Sizing.KellyFraction)
	}
	if c.Stop.TrailingPct <= 0 || c.Stop.TrailingPct > c.Stop.InitialPct {
		return fmt.Errorf("invalid stop loss: trailing_pct %.4f must be in (0, initial_pct %.4f]", c.Stop.TrailingPct, c.Stop.InitialPct)
	}
	if c.Stop.ActivationPct < 0 {
		return fmt.Errorf("stop.activation_pct cannot be negative, got %.4f", c.Stop.ActivationPct)
	}
	prevTarget := 0.0
	for i, tp := range c.TakeProfit {
		if tp.TargetPct <= prevTarget {
			return fmt.Errorf("take_profit[%d]: target_pct %.4f must be positive and ascending", i, tp.TargetPct)
		}
		if tp.Fraction <= 0 || tp.Fraction > 1 {
			return fmt.Errorf("take_profit[%d]: fraction must be in (0,1], got %.4f", i, tp.Fraction)
		}
		prevTarget = tp.TargetPct
	}
	if c.MaxHoldingHours < 0 {
		return fmt.Errorf("max_holding_hours cannot be negative, got %.2f", c.MaxHoldingHours)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("min_confidence must be between 0 and 100, got %.2f", c.MinConfidence)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// applyDefaults fills operational defaults only. Risk parameters get no
// defaults; a missing one fails validation instead.
func (c *Config) applyDefaults() {
	if c.DataSource == "" {
		c.DataSource = "STATIC"
	}
	if c.Interval == "" {
		c.Interval = "1h"
	}
	if c.PollSeconds == 0 {
		c.PollSeconds = 15
	}
	if c.LookbackBars == 0 {
		c.LookbackBars = 24
	}
	if c.Sizing.Unit == "" {
		c.Sizing.Unit = "FRACTION"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if c.Portfolio.Path == "" {
		c.Portfolio.Path = "portfolio.json"
	}
	if len(c.Indicators.SMAWindows) == 0 {
		c.Indicators.SMAWindows = []int{20, 50}
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = 14
	}
	if c.Indicators.BBWindow == 0 {
		c.Indicators.BBWindow = 20
	}
	if c.Indicators.BBStdDev == 0 {
		c.Indicators.BBStdDev = 2.0
	}
	if c.Indicators.ATRPeriod == 0 {
		c.Indicators.ATRPeriod = 14
	}
}
