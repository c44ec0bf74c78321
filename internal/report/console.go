package report

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"llm-trader/internal/backtest"
	"llm-trader/internal/types"
)

// Console renders backtest reports as tables.
type Console struct {
	out        io.Writer
	withTrades bool
}

func NewConsole(withTrades bool) *Console {
	return &Console{out: os.Stdout, withTrades: withTrades}
}

// NewConsoleWriter renders to an arbitrary writer, for tests.
func NewConsoleWriter(w io.Writer, withTrades bool) *Console {
	return &Console{out: w, withTrades: withTrades}
}

func (c *Console) Render(reports []backtest.Report) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Initial", "Final", "Position", "Return", "MaxDD", "Trades", "Win rate")

	for _, r := range reports {
		table.Append(
			r.Symbol,
			fmt.Sprintf("$%.2f", r.InitialBalance),
			fmt.Sprintf("$%.2f", r.FinalBalance),
			fmt.Sprintf("$%.2f", r.FinalPositionValue),
			fmt.Sprintf("%+.2f%%", r.ReturnPct),
			fmt.Sprintf("%.2f%%", r.MaxDrawdownPct),
			fmt.Sprintf("%d", r.TradeCount),
			fmt.Sprintf("%.0f%%", r.WinRate*100),
		)
	}
	table.Render()

	totalReturn := lo.SumBy(reports, func(r backtest.Report) float64 {
		return r.FinalBalance + r.FinalPositionValue - r.InitialBalance
	})
	fmt.Fprintf(c.out, "Net P&L across %d run(s): $%+.2f\n", len(reports), totalReturn)

	if c.withTrades {
		for _, r := range reports {
			c.renderTrades(r)
		}
	}
}

func (c *Console) renderTrades(r backtest.Report) {
	if len(r.Trades) == 0 {
		fmt.Fprintf(c.out, "\n%s: no trades executed\n", r.Symbol)
		return
	}
	fmt.Fprintf(c.out, "\n%s trades:\n", r.Symbol)

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Action", "Size", "Price", "Fee", "Profit", "Balance", "Reason")
	for _, f := range r.Trades {
		profit := ""
		if f.Action == types.Sell {
			profit = fmt.Sprintf("%+.2f", f.Profit)
		}
		table.Append(
			f.Ts.Format("2006-01-02 15:04"),
			string(f.Action),
			fmt.Sprintf("%.4f", f.Size),
			fmt.Sprintf("%.4f", f.Price),
			fmt.Sprintf("%.4f", f.Fee),
			profit,
			fmt.Sprintf("%.2f", f.Balance),
			string(f.Reason),
		)
	}
	table.Render()
}
