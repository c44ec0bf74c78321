package engine

import (
	"math"

	"llm-trader/internal/store"
)

// GateResult carries the numeric inputs of a gate check so rejections can be
// reported with the observed and required change.
type GateResult struct {
	Act         bool
	CurrentPct  float64
	RequiredPct float64
}

// CheckGate decides whether the current price change is significant enough
// to consider trading. The configured base threshold is scaled by the
// volatility ratio and clamped into [min, max]. Pure: identical inputs give
// identical results, which backtest reproducibility relies on.
func CheckGate(changePct, volRatio float64, cfg *store.Config) GateResult {
	required := cfg.Threshold.BasePct * cfg.Threshold.VolatilityMult * volRatio
	required = math.Min(math.Max(required, cfg.Threshold.MinPct), cfg.Threshold.MaxPct)
	return GateResult{
		Act:         math.Abs(changePct) >= required,
		CurrentPct:  changePct,
		RequiredPct: required,
	}
}
