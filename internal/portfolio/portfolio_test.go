package portfolio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-trader/internal/engine"
)

func TestLoadMissingFileIsFreshState(t *testing.T) {
	st, err := Load(filepath.Join(t.TempDir(), "portfolio.json"), 10000)
	require.NoError(t, err)
	assert.InDelta(t, 10000, st.Balance, 1e-9)
	assert.Empty(t, st.Positions)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "portfolio.json")
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	led := engine.NewLedger("BTCUSDT")
	require.NoError(t, led.RecordBuy(2, 100, ts))
	require.NoError(t, led.RecordBuy(1, 110, ts.Add(time.Hour)))

	st := &State{
		Balance:   8500,
		Positions: map[string]PositionState{"BTCUSDT": FromLedger(led)},
	}
	require.NoError(t, Save(p, st))

	got, err := Load(p, 10000)
	require.NoError(t, err)
	assert.InDelta(t, 8500, got.Balance, 1e-9)

	restored, err := ToLedger(got.Positions["BTCUSDT"])
	require.NoError(t, err)
	assert.InDelta(t, led.NetSize(), restored.NetSize(), 1e-9)
	assert.InDelta(t, led.MeanPrice(), restored.MeanPrice(), 1e-9)
	require.Len(t, restored.Entries(), 2)
}
