package backtest

import (
	"context"
	"fmt"
	"math"

	"llm-trader/internal/engine"
	"llm-trader/internal/interfaces"
	"llm-trader/internal/logger"
	"llm-trader/internal/store"
	"llm-trader/internal/types"
)

// Simulator replays a historical bar sequence through the decision pipeline
// and applies simulated fills. Signal-driven fills execute at the next bar's
// open; forced exits execute at the triggering bar's open. Runs are
// deterministic: the same bars and config always produce the same report.
type Simulator struct {
	cfg *store.Config

	// OnFill, when set, receives every executed fill as it happens.
	OnFill func(types.Fill)
}

func NewSimulator(cfg *store.Config) *Simulator {
	return &Simulator{cfg: cfg}
}

// Run replays bars for one symbol from a fresh simulation state.
func (s *Simulator) Run(ctx context.Context, symbol string, decider interfaces.Decider, bars []types.Bar) (Report, error) {
	if len(bars) < 2 {
		return Report{}, fmt.Errorf("backtest %s: need at least 2 bars, got %d", symbol, len(bars))
	}

	eng := engine.New(s.cfg, decider, symbol)
	led := eng.Ledger()

	balance := s.cfg.InitialBalance
	fee := s.cfg.TradingFeePct / 100
	var trades []types.Fill

	peak := balance
	maxDrawdown := 0.0
	lastClose := 0.0

	// Only valid bars enter the rolling window; malformed bars are skipped
	// with a warning and leave the window untouched.
	window := make([]types.Bar, 0, len(bars))
	if err := engine.ValidateBar(bars[0]); err == nil {
		window = append(window, bars[0])
		lastClose = bars[0].Close
	} else {
		logger.Warn(ctx, "Skipping malformed bar", "symbol", symbol, "error", err)
	}

	for i := 1; i < len(bars); i++ {
		bar := bars[i]
		if err := engine.ValidateBar(bar); err != nil {
			logger.Warn(ctx, "Skipping malformed bar", "symbol", symbol, "error", err)
			continue
		}
		window = append(window, bar)
		lastClose = bar.Close
		if len(window) < 2 {
			continue
		}

		led.UpdateMark(bar.Close)
		snap := engine.BuildSnapshot(symbol, window, s.cfg)
		dec := eng.Decide(ctx, snap, balance)

		if dec.Action != types.Hold {
			fillBar, ok := s.fillBar(dec, bars, i)
			if !ok {
				logger.Debug(ctx, "No fill bar available, dropping decision",
					"symbol", symbol, "action", dec.Action)
			} else {
				fill, err := s.execute(ctx, dec, led, &balance, fee, fillBar, symbol)
				if err != nil {
					return Report{}, err
				}
				if fill != nil {
					trades = append(trades, *fill)
					if s.OnFill != nil {
						s.OnFill(*fill)
					}
				}
			}
		}

		value := balance + led.NetSize()*bar.Close
		if value > peak {
			peak = value
		}
		if peak > 0 {
			maxDrawdown = math.Max(maxDrawdown, (peak-value)/peak)
		}
	}

	positionValue := led.NetSize() * lastClose
	return buildReport(symbol, s.cfg.InitialBalance, balance, positionValue, maxDrawdown, trades), nil
}

// fillBar picks the bar whose open prices the fill. Forced exits fill on the
// bar that triggered them; signal trades fill on the next bar and are
// dropped on the final bar.
func (s *Simulator) fillBar(dec types.Decision, bars []types.Bar, i int) (types.Bar, bool) {
	if dec.Forced {
		return bars[i], true
	}
	if i+1 >= len(bars) {
		return types.Bar{}, false
	}
	next := bars[i+1]
	if engine.ValidateBar(next) != nil {
		return types.Bar{}, false
	}
	return next, true
}

func (s *Simulator) execute(ctx context.Context, dec types.Decision, led *engine.Ledger, balance *float64, fee float64, fillBar types.Bar, symbol string) (*types.Fill, error) {
	price := fillBar.Open

	switch dec.Action {
	case types.Buy:
		feeAmount := price * dec.Size * fee
		cost := price*dec.Size + feeAmount
		if cost > *balance {
			logger.Warn(ctx, "Insufficient balance for BUY",
				"symbol", symbol, "cost", cost, "balance", *balance)
			return nil, nil
		}
		if err := led.RecordBuy(dec.Size, price, fillBar.Ts); err != nil {
			return nil, err
		}
		*balance -= cost
		return &types.Fill{
			Ts:      fillBar.Ts,
			Symbol:  symbol,
			Action:  types.Buy,
			Size:    dec.Size,
			Price:   price,
			Fee:     feeAmount,
			Balance: *balance,
			NetSize: led.NetSize(),
			Reason:  dec.Reason,
		}, nil

	case types.Sell:
		size := math.Min(dec.Size, led.NetSize())
		if size <= 0 {
			return nil, nil
		}
		costBasis, err := led.RecordSell(size, price, fillBar.Ts)
		if err != nil {
			// Oversells are clamped before reaching the ledger; getting
			// here is a logic bug and aborts the run.
			return nil, err
		}
		feeAmount := price * size * fee
		proceeds := price*size - feeAmount
		*balance += proceeds
		return &types.Fill{
			Ts:      fillBar.Ts,
			Symbol:  symbol,
			Action:  types.Sell,
			Size:    size,
			Price:   price,
			Fee:     feeAmount,
			Balance: *balance,
			NetSize: led.NetSize(),
			Profit:  proceeds - costBasis,
			Reason:  dec.Reason,
		}, nil
	}
	return nil, nil
}
