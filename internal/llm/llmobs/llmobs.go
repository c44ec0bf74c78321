package llmobs

import (
	"context"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/logger"
	"llm-trader/internal/trace"
	"llm-trader/internal/types"
)

// observableDecider wraps a Decider with logging and tracing.
type observableDecider struct {
	decider interfaces.Decider
}

var _ interfaces.Decider = (*observableDecider)(nil)

// Wrap wraps a decider with observability middleware.
func Wrap(decider interfaces.Decider) interfaces.Decider {
	return &observableDecider{decider: decider}
}

func (od *observableDecider) Decide(ctx context.Context, snap types.Snapshot, pos interfaces.PositionContext) (types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Decide")
	defer span.End()

	// Skip(1) so the reported source is the middleware's caller.
	logger.DebugSkip(ctx, 1, "Requesting trading signal",
		"symbol", snap.Symbol,
		"price", snap.Price,
		"change_pct", snap.ChangePct,
	)

	sig, err := od.decider.Decide(ctx, snap, pos)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get trading signal", err,
			"symbol", snap.Symbol,
			"price", snap.Price,
		)
		return types.Signal{}, err
	}

	logger.InfoSkip(ctx, 1, "Trading signal received",
		"symbol", snap.Symbol,
		"action", sig.Action,
		"confidence", sig.Confidence,
	)
	return sig, nil
}
