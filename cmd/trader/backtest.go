package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"llm-trader/internal/backtest"
	"llm-trader/internal/interfaces"
	"llm-trader/internal/logger"
	"llm-trader/internal/report"
	"llm-trader/internal/store"
	"llm-trader/internal/tradelog"
	"llm-trader/internal/types"
)

// backtestBarLimit caps how much history a single run pulls from the source.
const backtestBarLimit = 1000

func runBacktest(ctx context.Context, cfg *store.Config, source interfaces.BarSource, decider interfaces.Decider) error {
	var (
		mu      sync.Mutex
		reports []backtest.Report
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, symbol := range cfg.Symbols {
		symbol := symbol
		g.Go(func() error {
			bars, err := source.Bars(gctx, symbol, backtestBarLimit)
			if err != nil {
				return fmt.Errorf("load bars for %s: %w", symbol, err)
			}
			logger.Info(gctx, "backtest starting", "symbol", symbol, "bars", len(bars))

			sim := backtest.NewSimulator(cfg)
			sim.OnFill = func(f types.Fill) {
				if err := tradelog.Append(f); err != nil {
					logger.ErrorWithErr(gctx, "trade log append failed", err, "symbol", f.Symbol)
				}
			}
			rep, err := sim.Run(gctx, symbol, decider, bars)
			if err != nil {
				return fmt.Errorf("backtest %s: %w", symbol, err)
			}

			mu.Lock()
			reports = append(reports, rep)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	withTrades := os.Getenv("TRADER_PRINT_TRADES") != ""
	report.NewConsole(withTrades).Render(reports)
	return nil
}
