package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	cfg.Sizing.RiskPerTrade = 1.0
	cfg.Sizing.KellyFraction = 1.0
	cfg.Stop.InitialPct = 8.0
	cfg.Stop.TrailingPct = 4.0
	cfg.Stop.ActivationPct = 50.0
	cfg.MinConfidence = 0
	cfg.LLM.TimeoutSeconds = 5
	return cfg
}

func barAt(h int, open, high, low, close float64) types.Bar {
	return types.Bar{
		Ts:    time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC),
		Open:  open, High: high, Low: low, Close: close,
	}
}

// buyOnceDecider buys a fixed size on the first opportunity while flat,
// then holds.
type buyOnceDecider struct {
	size   float64
	bought bool
}

func (d *buyOnceDecider) Decide(_ context.Context, _ types.Snapshot, pos interfaces.PositionContext) (types.Signal, error) {
	if !d.bought && pos.NetSize == 0 {
		d.bought = true
		return types.Signal{Action: types.Buy, Size: d.size, Confidence: 100, Rationale: "scripted entry"}, nil
	}
	return types.Signal{Action: types.Hold, Confidence: 100}, nil
}

// The canonical stop-loss round trip: buy 10 units filled at the next open
// of 100, stop at 92 triggered by a close of 90, forced sell filled at that
// bar's own open of 95. With a 0.1% fee the buy costs 1001.00 and the sell
// nets 949.05, ending at 9948.05.
func goldenBars() []types.Bar {
	return []types.Bar{
		barAt(0, 100, 101, 99, 100),
		barAt(1, 100, 104, 99, 103), // +3% passes the gate, decider buys
		barAt(2, 100, 101, 99, 100), // fill bar for the buy
		barAt(3, 95, 100, 88, 90),   // close 90 <= stop 92, sell at open 95
	}
}

func TestRunGoldenStopLossScenario(t *testing.T) {
	sim := NewSimulator(testConfig())
	rep, err := sim.Run(context.Background(), "BTCUSDT", &buyOnceDecider{size: 10}, goldenBars())
	require.NoError(t, err)

	assert.Equal(t, 2, rep.TradeCount)
	assert.InDelta(t, 9948.05, rep.FinalBalance, 1e-6)
	assert.Zero(t, rep.FinalPositionValue)
	assert.Zero(t, rep.WinRate)
	assert.InDelta(t, -0.5195, rep.ReturnPct, 1e-4)

	require.Len(t, rep.Trades, 2)
	buy, sell := rep.Trades[0], rep.Trades[1]

	assert.Equal(t, types.Buy, buy.Action)
	assert.InDelta(t, 100, buy.Price, 1e-9)
	assert.InDelta(t, 10, buy.Size, 1e-9)
	assert.InDelta(t, 1.0, buy.Fee, 1e-9)
	assert.InDelta(t, 8999, buy.Balance, 1e-9)

	assert.Equal(t, types.Sell, sell.Action)
	assert.Equal(t, types.ReasonStopLoss, sell.Reason)
	assert.InDelta(t, 95, sell.Price, 1e-9)
	assert.InDelta(t, 949.05-1000, sell.Profit, 1e-9)
	assert.Zero(t, sell.NetSize)
}

func TestRunIsDeterministic(t *testing.T) {
	bars := goldenBars()

	first, err := NewSimulator(testConfig()).Run(context.Background(), "BTCUSDT", &buyOnceDecider{size: 10}, bars)
	require.NoError(t, err)
	second, err := NewSimulator(testConfig()).Run(context.Background(), "BTCUSDT", &buyOnceDecider{size: 10}, bars)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunSignalOnLastBarIsDropped(t *testing.T) {
	bars := []types.Bar{
		barAt(0, 100, 101, 99, 100),
		barAt(1, 100, 104, 99, 103), // buy decided here, but no next bar
	}
	sim := NewSimulator(testConfig())
	rep, err := sim.Run(context.Background(), "BTCUSDT", &buyOnceDecider{size: 10}, bars)
	require.NoError(t, err)

	assert.Zero(t, rep.TradeCount)
	assert.InDelta(t, 10000, rep.FinalBalance, 1e-9)
}

func TestRunSkipsMalformedBars(t *testing.T) {
	bars := []types.Bar{
		barAt(0, 100, 101, 99, 100),
		{Ts: time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)}, // zero prices
		barAt(2, 100, 104, 99, 103),
		barAt(3, 100, 101, 99, 100),
	}
	sim := NewSimulator(testConfig())
	rep, err := sim.Run(context.Background(), "BTCUSDT", &buyOnceDecider{size: 10}, bars)
	require.NoError(t, err)

	// the gap bar never enters the window; the buy still fills at hour 3
	require.Equal(t, 1, rep.TradeCount)
	assert.Equal(t, types.Buy, rep.Trades[0].Action)
	assert.Equal(t, time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC), rep.Trades[0].Ts)
}

func TestRunRejectsTooFewBars(t *testing.T) {
	sim := NewSimulator(testConfig())
	_, err := sim.Run(context.Background(), "BTCUSDT", &buyOnceDecider{size: 10}, []types.Bar{barAt(0, 100, 101, 99, 100)})
	require.Error(t, err)
}

func TestRunInsufficientBalanceSkipsBuy(t *testing.T) {
	cfg := testConfig()
	cfg.InitialBalance = 500
	sim := NewSimulator(cfg)

	rep, err := sim.Run(context.Background(), "BTCUSDT", &buyOnceDecider{size: 10}, goldenBars())
	require.NoError(t, err)
	assert.Zero(t, rep.TradeCount)
	assert.InDelta(t, 500, rep.FinalBalance, 1e-9)
}

func TestRunDrawdownTracksEquityTrough(t *testing.T) {
	sim := NewSimulator(testConfig())
	rep, err := sim.Run(context.Background(), "BTCUSDT", &buyOnceDecider{size: 10}, goldenBars())
	require.NoError(t, err)

	// peak equity 10029 right after the fill, trough 9948.05 after the stop
	assert.InDelta(t, (10029.0-9948.05)/10029.0*100, rep.MaxDrawdownPct, 1e-6)
}

func TestRunEmitsFillsInOrder(t *testing.T) {
	sim := NewSimulator(testConfig())
	var seen []types.Action
	sim.OnFill = func(f types.Fill) { seen = append(seen, f.Action) }

	_, err := sim.Run(context.Background(), "BTCUSDT", &buyOnceDecider{size: 10}, goldenBars())
	require.NoError(t, err)
	assert.Equal(t, []types.Action{types.Buy, types.Sell}, seen)
}
