package engine

import (
	"context"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/store"
	"llm-trader/internal/types"
)

func testConfig() *store.Config {
	cfg := &store.Config{
		Mode:           "BACKTEST",
		DataSource:     "STATIC",
		Symbols:        []string{"BTCUSDT"},
		Interval:       "1h",
		LookbackBars:   24,
		InitialBalance: 10000,
		TradingFeePct:  0.1,
	}
	cfg.Threshold.BasePct = 1.0
	cfg.Threshold.MinPct = 0.5
	cfg.Threshold.MaxPct = 5.0
	cfg.Threshold.VolatilityMult = 1.0
	cfg.Sizing.Unit = "ABSOLUTE"
	cfg.Sizing.MinSize = 0.01
	cfg.Sizing.MaxSize = 100
	cfg.Sizing.RiskPerTrade = 0.02
	cfg.Sizing.KellyFraction = 0.5
	cfg.Stop.InitialPct = 8.0
	cfg.Stop.TrailingPct = 4.0
	cfg.Stop.ActivationPct = 5.0
	cfg.TakeProfit = []store.TakeProfitRung{
		{TargetPct: 5.0, Fraction: 0.33},
		{TargetPct: 10.0, Fraction: 0.5},
	}
	cfg.MaxHoldingHours = 0
	cfg.MinConfidence = 55
	cfg.LLM.TimeoutSeconds = 5
	return cfg
}

// scriptedDecider returns its signals in order, then holds forever.
type scriptedDecider struct {
	signals []types.Signal
	errs    []error
	calls   int
}

func (d *scriptedDecider) Decide(_ context.Context, _ types.Snapshot, _ interfaces.PositionContext) (types.Signal, error) {
	i := d.calls
	d.calls++
	if i < len(d.errs) && d.errs[i] != nil {
		return types.Signal{}, d.errs[i]
	}
	if i < len(d.signals) {
		return d.signals[i], nil
	}
	return types.Signal{Action: types.Hold, Confidence: 100}, nil
}
