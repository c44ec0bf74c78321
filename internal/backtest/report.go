package backtest

import (
	"github.com/samber/lo"

	"llm-trader/internal/types"
)

// Report is the value object assembled at simulation end.
type Report struct {
	Symbol             string       `json:"symbol"`
	InitialBalance     float64      `json:"initial_balance"`
	FinalBalance       float64      `json:"final_balance"`
	FinalPositionValue float64      `json:"final_position_value"`
	ReturnPct          float64      `json:"return_pct"`
	MaxDrawdownPct     float64      `json:"max_drawdown_pct"`
	TradeCount         int          `json:"trade_count"`
	WinRate            float64      `json:"win_rate"`
	Trades             []types.Fill `json:"trades"`
}

func buildReport(symbol string, initial, balance, positionValue, maxDrawdown float64, trades []types.Fill) Report {
	closing := lo.Filter(trades, func(f types.Fill, _ int) bool {
		return f.Action == types.Sell
	})
	winRate := 0.0
	if len(closing) > 0 {
		wins := lo.CountBy(closing, func(f types.Fill) bool { return f.Profit > 0 })
		winRate = float64(wins) / float64(len(closing))
	}
	return Report{
		Symbol:             symbol,
		InitialBalance:     initial,
		FinalBalance:       balance,
		FinalPositionValue: positionValue,
		ReturnPct:          (balance + positionValue - initial) / initial * 100,
		MaxDrawdownPct:     maxDrawdown * 100,
		TradeCount:         len(trades),
		WinRate:            winRate,
		Trades:             trades,
	}
}
