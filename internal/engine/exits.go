package engine

import (
	"fmt"
	"math"
	"time"

	"llm-trader/internal/store"
	"llm-trader/internal/types"
)

// ExitEvaluator force-closes open positions independent of any new signal:
// stop-loss (initial or trailing once the activation profit is reached),
// time-based exit, and the take-profit ladder. Each ladder rung fires at
// most once per position lifetime.
type ExitEvaluator struct {
	cfg   *store.Config
	fired []bool
}

func NewExitEvaluator(cfg *store.Config) *ExitEvaluator {
	return &ExitEvaluator{cfg: cfg, fired: make([]bool, len(cfg.TakeProfit))}
}

// Evaluate returns a forced decision when an exit rule fires, nil otherwise.
// Runs only against open positions; a flat ledger resets the ladder state
// for the next position lifetime.
func (e *ExitEvaluator) Evaluate(led *Ledger, price float64, now time.Time) *types.Decision {
	if led.NetSize() <= 0 {
		for i := range e.fired {
			e.fired[i] = false
		}
		return nil
	}

	mean := led.MeanPrice()
	profitPct := (price - mean) / mean * 100

	// Trailing stop arms once the high-water profit reaches the activation
	// threshold; it never disarms because the high-water mark is monotone.
	stopPrice := mean * (1 - e.cfg.Stop.InitialPct/100)
	highProfitPct := (led.HighWater() - mean) / mean * 100
	trailing := highProfitPct >= e.cfg.Stop.ActivationPct
	if trailing {
		stopPrice = led.HighWater() * (1 - e.cfg.Stop.TrailingPct/100)
	}
	if price <= stopPrice {
		kind := "initial"
		if trailing {
			kind = "trailing"
		}
		return &types.Decision{
			Action:    types.Sell,
			Size:      led.NetSize(),
			Reason:    types.ReasonStopLoss,
			Forced:    true,
			Rationale: fmt.Sprintf("%s stop hit: price %.4f <= stop %.4f (mean entry %.4f)", kind, price, stopPrice, mean),
		}
	}

	if e.cfg.MaxHoldingHours > 0 {
		maxHold := time.Duration(e.cfg.MaxHoldingHours * float64(time.Hour))
		if held := now.Sub(led.OpenedAt()); held >= maxHold {
			return &types.Decision{
				Action:    types.Sell,
				Size:      led.NetSize(),
				Reason:    types.ReasonTimeExit,
				Forced:    true,
				Rationale: fmt.Sprintf("held %s >= max holding %s", held, maxHold),
			}
		}
	}

	for i, rung := range e.cfg.TakeProfit {
		if e.fired[i] || profitPct < rung.TargetPct {
			continue
		}
		e.fired[i] = true
		// Rungs size against the original entry size so laddering does not
		// compound as the net size shrinks.
		size := math.Min(rung.Fraction*led.LifetimeSize(), led.NetSize())
		return &types.Decision{
			Action:    types.Sell,
			Size:      size,
			Reason:    types.ReasonTakeProfit,
			Forced:    true,
			Rationale: fmt.Sprintf("take-profit rung %d hit: +%.2f%% >= %.2f%%, closing %.4f", i+1, profitPct, rung.TargetPct, size),
		}
	}

	return nil
}
