package market

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"llm-trader/internal/types"
)

// Static generates a deterministic synthetic random walk per symbol, for
// offline testing without any exchange access. The seed is derived from the
// symbol so every run over a symbol sees the same bars.
type Static struct {
	interval time.Duration
}

func NewStatic(interval time.Duration) *Static {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Static{interval: interval}
}

func (s *Static) Bars(_ context.Context, symbol string, limit int) ([]types.Bar, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 1000 + rng.Float64()*100

	bars := make([]types.Bar, 0, limit)
	for i := 0; i < limit; i++ {
		drift := math.Sin(float64(i)/12) * 0.004
		change := drift + (rng.Float64()-0.5)*0.02
		open := price
		price = price * (1 + change)
		high := math.Max(open, price) * (1 + rng.Float64()*0.003)
		low := math.Min(open, price) * (1 - rng.Float64()*0.003)
		bars = append(bars, types.Bar{
			Ts:    start.Add(time.Duration(i) * s.interval),
			Open:  open,
			High:  high,
			Low:   low,
			Close: price,
			Vol:   500 + rng.Float64()*1000,
		})
	}
	return bars, nil
}
