package noop

import (
	"context"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/logger"
	"llm-trader/internal/types"
)

// NoopDecider is the fallback decider used when no LLM provider is
// configured. It always holds.
type NoopDecider struct{}

func NewNoopDecider() *NoopDecider {
	return &NoopDecider{}
}

func (d *NoopDecider) Decide(ctx context.Context, snap types.Snapshot, _ interfaces.PositionContext) (types.Signal, error) {
	logger.Debug(ctx, "Noop decider called - always returns HOLD", "symbol", snap.Symbol)
	return types.Signal{
		Action:    types.Hold,
		Rationale: "noop_decider_fallback",
	}, nil
}
