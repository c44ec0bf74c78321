package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := &Config{
		Mode:           "BACKTEST",
		DataSource:     "STATIC",
		Symbols:        []string{"BTCUSDT"},
		InitialBalance: 10000,
		TradingFeePct:  0.1,
	}
	c.Threshold.BasePct = 1.0
	c.Threshold.MinPct = 0.5
	c.Threshold.MaxPct = 5.0
	c.Threshold.VolatilityMult = 1.0
	c.Sizing.Unit = "FRACTION"
	c.Sizing.MinSize = 0.01
	c.Sizing.MaxSize = 0.5
	c.Sizing.RiskPerTrade = 0.02
	c.Sizing.KellyFraction = 0.5
	c.Stop.InitialPct = 8.0
	c.Stop.TrailingPct = 4.0
	c.Stop.ActivationPct = 5.0
	c.TakeProfit = []TakeProfitRung{
		{TargetPct: 5, Fraction: 0.33},
		{TargetPct: 10, Fraction: 0.5},
	}
	c.MinConfidence = 55
	return c
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown mode", func(c *Config) { c.Mode = "LIVE" }, "invalid mode"},
		{"unknown data source", func(c *Config) { c.DataSource = "KRAKEN" }, "invalid data_source"},
		{"no symbols", func(c *Config) { c.Symbols = nil }, "symbols"},
		{"zero balance", func(c *Config) { c.InitialBalance = 0 }, "initial_balance"},
		{"negative fee", func(c *Config) { c.TradingFeePct = -1 }, "trading_fee_pct"},
		{"zero base threshold", func(c *Config) { c.Threshold.BasePct = 0 }, "base_pct"},
		{"min above max threshold", func(c *Config) { c.Threshold.MinPct = 6 }, "threshold range"},
		{"zero volatility multiplier", func(c *Config) { c.Threshold.VolatilityMult = 0 }, "volatility_multiplier"},
		{"unknown sizing unit", func(c *Config) { c.Sizing.Unit = "SHARES" }, "sizing.unit"},
		{"min size above max", func(c *Config) { c.Sizing.MinSize = 0.9 }, "position size range"},
		{"fraction above one", func(c *Config) { c.Sizing.MaxSize = 1.5 }, "max_position_size"},
		{"risk per trade above one", func(c *Config) { c.Sizing.RiskPerTrade = 1.5 }, "risk_per_trade"},
		{"zero kelly", func(c *Config) { c.Sizing.KellyFraction = 0 }, "kelly_fraction"},
		{"trailing wider than initial stop", func(c *Config) { c.Stop.TrailingPct = 9 }, "trailing_pct"},
		{"negative activation", func(c *Config) { c.Stop.ActivationPct = -1 }, "activation_pct"},
		{"non-ascending take profit", func(c *Config) { c.TakeProfit[1].TargetPct = 5 }, "take_profit[1]"},
		{"take profit fraction above one", func(c *Config) { c.TakeProfit[0].Fraction = 1.2 }, "fraction"},
		{"negative max holding", func(c *Config) { c.MaxHoldingHours = -1 }, "max_holding_hours"},
		{"confidence above hundred", func(c *Config) { c.MinConfidence = 150 }, "min_confidence"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	yml := `
mode: BACKTEST
symbols: [BTCUSDT]
initial_balance: 10000
trading_fee_pct: 0.1
threshold: {base_pct: 1.0, min_pct: 0.5, max_pct: 5.0, volatility_multiplier: 1.0}
sizing: {min_position_size: 0.01, max_position_size: 0.5, risk_per_trade: 0.02, kelly_fraction: 0.5}
stop: {initial_pct: 8.0, trailing_pct: 4.0, activation_pct: 5.0}
min_confidence: 55
`
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(yml), 0o644))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "STATIC", cfg.DataSource)
	assert.Equal(t, "1h", cfg.Interval)
	assert.Equal(t, 24, cfg.LookbackBars)
	assert.Equal(t, "FRACTION", cfg.Sizing.Unit)
	assert.Equal(t, 30, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, "portfolio.json", cfg.Portfolio.Path)
	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("mode: BACKTEST\n"), 0o644))

	_, err := LoadConfig(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
