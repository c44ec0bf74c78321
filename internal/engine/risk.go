package engine

import (
	"math"

	"llm-trader/internal/store"
	"llm-trader/internal/types"
)

// assumedStopDistance translates the per-trade risk budget into a position
// size. The realized stop distance is only known after the exit evaluator
// assigns one, so sizing assumes a fixed 5% stop.
const assumedStopDistance = 0.05

// SizeRequest is one proposed trade to be bounded by the risk limits.
// Requested is in the configured sizing unit; the result is in base asset
// units.
type SizeRequest struct {
	Action    types.Action
	Requested float64
	Balance   float64
	Price     float64
	NetSize   float64
}

// ComputeSize bounds a proposed trade by the Kelly fraction, the per-trade
// risk cap and the configured size limits. A zero size comes with the
// reason code that forces the decision to HOLD.
func ComputeSize(req SizeRequest, cfg *store.Config) (float64, types.Reason) {
	if req.Action == types.Hold {
		return 0, ""
	}
	if req.Action == types.Sell && req.NetSize <= 0 {
		return 0, types.ReasonNoPositionToSell
	}

	requested := toUnits(req.Requested, req.Balance, req.Price, cfg)
	kellySize := requested * cfg.Sizing.KellyFraction

	riskBudget := req.Balance * cfg.Sizing.RiskPerTrade
	riskCap := riskBudget / assumedStopDistance / req.Price

	maxSize := toUnits(cfg.Sizing.MaxSize, req.Balance, req.Price, cfg)
	minSize := toUnits(cfg.Sizing.MinSize, req.Balance, req.Price, cfg)

	size := math.Min(math.Min(kellySize, riskCap), math.Min(maxSize, requested))
	if math.IsNaN(size) || math.IsInf(size, 0) || size <= 0 {
		return 0, types.ReasonInvalidSize
	}
	if size < minSize {
		size = minSize
	}

	if req.Action == types.Sell && size > req.NetSize {
		size = req.NetSize
	}
	return size, ""
}

// toUnits converts a configured size into base asset units. In FRACTION
// unit sizes are fractions of the current balance spent at the current
// price; in ABSOLUTE unit they already are asset units.
func toUnits(v, balance, price float64, cfg *store.Config) float64 {
	if cfg.Sizing.Unit == "FRACTION" {
		return v * balance / price
	}
	return v
}
