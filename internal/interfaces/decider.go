package interfaces

import (
	"context"

	"llm-trader/internal/types"
)

// PositionContext carries the open-position view a decider may reason about.
type PositionContext struct {
	NetSize    float64
	EntryPrice float64
}

// Decider produces the raw trading signal for one bar. Implementations may
// block on external services; callers bound the call with a context deadline.
type Decider interface {
	Decide(ctx context.Context, snap types.Snapshot, pos PositionContext) (types.Signal, error)
}
