package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-trader/internal/engine"
)

func TestStaticBarsAreDeterministicPerSymbol(t *testing.T) {
	src := NewStatic(time.Hour)

	first, err := src.Bars(context.Background(), "BTCUSDT", 50)
	require.NoError(t, err)
	second, err := src.Bars(context.Background(), "BTCUSDT", 50)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := src.Bars(context.Background(), "ETHUSDT", 50)
	require.NoError(t, err)
	assert.NotEqual(t, first[0].Close, other[0].Close)
}

func TestStaticBarsAreValid(t *testing.T) {
	src := NewStatic(time.Hour)
	bars, err := src.Bars(context.Background(), "BTCUSDT", 100)
	require.NoError(t, err)
	require.Len(t, bars, 100)

	for i, b := range bars {
		require.NoError(t, engine.ValidateBar(b))
		if i > 0 {
			assert.True(t, b.Ts.After(bars[i-1].Ts))
		}
	}
}
