package engine

import (
	"fmt"

	"llm-trader/internal/store"
	"llm-trader/internal/ta"
	"llm-trader/internal/types"
)

// ValidateBar rejects bars that cannot feed the pipeline. Rejected bars are
// skipped by the caller and never enter the rolling window.
func ValidateBar(b types.Bar) error {
	if b.Ts.IsZero() {
		return fmt.Errorf("bar has no timestamp")
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("bar at %s has non-positive price", b.Ts)
	}
	if b.High < b.Low {
		return fmt.Errorf("bar at %s has high %.8f below low %.8f", b.Ts, b.High, b.Low)
	}
	return nil
}

// BuildSnapshot derives the per-bar market view from the validated bars seen
// so far, newest last. The percentage change is measured over the lookback
// window and the rolling change list is bounded to the same window size,
// oldest evicted first.
func BuildSnapshot(symbol string, bars []types.Bar, cfg *store.Config) types.Snapshot {
	latest := bars[len(bars)-1]
	lookback := cfg.LookbackBars

	refIdx := len(bars) - 1 - lookback
	if refIdx < 0 {
		refIdx = 0
	}
	ref := bars[refIdx].Close

	changes := make([]float64, 0, lookback)
	start := len(bars) - lookback
	if start < 1 {
		start = 1
	}
	for i := start; i < len(bars); i++ {
		prev := bars[i-1].Close
		changes = append(changes, (bars[i].Close-prev)/prev*100)
	}

	return types.Snapshot{
		Symbol:        symbol,
		Ts:            latest.Ts,
		Price:         latest.Close,
		Volume:        latest.Vol,
		ChangePct:     (latest.Close - ref) / ref * 100,
		HighLowPct:    (latest.High - latest.Low) / latest.Low * 100,
		RecentChanges: changes,
		Indicators:    calcIndicators(bars, cfg),
	}
}

func calcIndicators(bars []types.Bar, cfg *store.Config) types.Indicators {
	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}
	inds := types.Indicators{SMA: map[int]float64{}}
	for _, w := range cfg.Indicators.SMAWindows {
		inds.SMA[w] = ta.SMA(closes, w)
	}
	inds.RSI = ta.RSI(closes, cfg.Indicators.RSIPeriod)
	mid, up, low := ta.Bollinger(closes, cfg.Indicators.BBWindow, cfg.Indicators.BBStdDev)
	inds.BB.Middle, inds.BB.Upper, inds.BB.Lower = mid, up, low
	inds.ATR = ta.ATR(highs, lows, closes, cfg.Indicators.ATRPeriod)
	return inds
}
