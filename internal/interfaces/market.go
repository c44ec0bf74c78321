package interfaces

import (
	"context"

	"llm-trader/internal/types"
)

// BarSource supplies historical or recent OHLCV bars, oldest first.
type BarSource interface {
	Bars(ctx context.Context, symbol string, limit int) ([]types.Bar, error)
}
