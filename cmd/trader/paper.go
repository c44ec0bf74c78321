package main

import (
	"context"
	"math"
	"time"

	"llm-trader/internal/engine"
	"llm-trader/internal/interfaces"
	"llm-trader/internal/logger"
	"llm-trader/internal/portfolio"
	"llm-trader/internal/store"
	"llm-trader/internal/tradelog"
	"llm-trader/internal/types"
)

// runPaper polls the bar source and trades against a persisted paper
// portfolio. Fills execute immediately at the latest close, there is no
// next-bar delay in live polling.
func runPaper(ctx context.Context, cfg *store.Config, source interfaces.BarSource, decider interfaces.Decider) error {
	state, err := portfolio.Load(cfg.Portfolio.Path, cfg.InitialBalance)
	if err != nil {
		return err
	}

	engines := make(map[string]*engine.Engine, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		if ps, ok := state.Positions[symbol]; ok {
			led, err := portfolio.ToLedger(ps)
			if err != nil {
				return err
			}
			engines[symbol] = engine.NewWithLedger(cfg, decider, led)
		} else {
			engines[symbol] = engine.New(cfg, decider, symbol)
		}
	}

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "paper trading started",
		"symbols", cfg.Symbols, "balance", state.Balance, "poll_seconds", cfg.PollSeconds)

	for {
		select {
		case <-tick.C:
			for _, symbol := range cfg.Symbols {
				if err := paperStep(ctx, cfg, source, engines[symbol], state, symbol); err != nil {
					logger.ErrorWithErr(ctx, "paper step failed", err, "symbol", symbol)
				}
			}
			if err := portfolio.Save(cfg.Portfolio.Path, state); err != nil {
				logger.ErrorWithErr(ctx, "portfolio save failed", err)
			}
		case <-ctx.Done():
			return portfolio.Save(cfg.Portfolio.Path, state)
		}
	}
}

func paperStep(ctx context.Context, cfg *store.Config, source interfaces.BarSource, eng *engine.Engine, state *portfolio.State, symbol string) error {
	bars, err := source.Bars(ctx, symbol, cfg.LookbackBars+1)
	if err != nil {
		return err
	}
	window := bars[:0]
	for _, b := range bars {
		if engine.ValidateBar(b) == nil {
			window = append(window, b)
		}
	}
	if len(window) < 2 {
		logger.Warn(ctx, "not enough valid bars, skipping tick", "symbol", symbol, "bars", len(window))
		return nil
	}

	led := eng.Ledger()
	led.UpdateMark(window[len(window)-1].Close)
	snap := engine.BuildSnapshot(symbol, window, cfg)
	dec := eng.Decide(ctx, snap, state.Balance)

	_ = tradelog.AppendDecision(tradelog.DecisionEntry{
		Ts:         snap.Ts,
		Symbol:     symbol,
		Action:     dec.Action,
		Size:       dec.Size,
		Confidence: dec.Confidence,
		Reason:     dec.Reason,
		Rationale:  dec.Rationale,
		Price:      snap.Price,
	})
	if dec.Action == types.Hold {
		return nil
	}

	fill, err := paperExecute(ctx, dec, led, state, cfg, snap)
	if err != nil {
		return err
	}
	if fill != nil {
		state.Positions[symbol] = portfolio.FromLedger(led)
		if err := tradelog.Append(*fill); err != nil {
			logger.ErrorWithErr(ctx, "trade log append failed", err, "symbol", symbol)
		}
		logger.Info(ctx, "paper fill",
			"symbol", symbol, "action", fill.Action, "size", fill.Size,
			"price", fill.Price, "balance", fill.Balance, "reason", fill.Reason)
	}
	return nil
}

func paperExecute(ctx context.Context, dec types.Decision, led *engine.Ledger, state *portfolio.State, cfg *store.Config, snap types.Snapshot) (*types.Fill, error) {
	price := snap.Price
	fee := cfg.TradingFeePct / 100

	switch dec.Action {
	case types.Buy:
		feeAmount := price * dec.Size * fee
		cost := price*dec.Size + feeAmount
		if cost > state.Balance {
			logger.Warn(ctx, "Insufficient balance for BUY",
				"symbol", snap.Symbol, "cost", cost, "balance", state.Balance)
			return nil, nil
		}
		if err := led.RecordBuy(dec.Size, price, snap.Ts); err != nil {
			return nil, err
		}
		state.Balance -= cost
		return &types.Fill{
			Ts:      snap.Ts,
			Symbol:  snap.Symbol,
			Action:  types.Buy,
			Size:    dec.Size,
			Price:   price,
			Fee:     feeAmount,
			Balance: state.Balance,
			NetSize: led.NetSize(),
			Reason:  dec.Reason,
		}, nil

	case types.Sell:
		size := math.Min(dec.Size, led.NetSize())
		if size <= 0 {
			return nil, nil
		}
		costBasis, err := led.RecordSell(size, price, snap.Ts)
		if err != nil {
			return nil, err
		}
		feeAmount := price * size * fee
		proceeds := price*size - feeAmount
		state.Balance += proceeds
		return &types.Fill{
			Ts:      snap.Ts,
			Symbol:  snap.Symbol,
			Action:  types.Sell,
			Size:    size,
			Price:   price,
			Fee:     feeAmount,
			Balance: state.Balance,
			NetSize: led.NetSize(),
			Profit:  proceeds - costBasis,
			Reason:  dec.Reason,
		}, nil
	}
	return nil, nil
}
