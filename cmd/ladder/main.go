package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tradewall/tradewall/internal/usecase"
)

// Prints the hedge ladder for a spot position without touching the database.
// Useful for checking sizing before committing a trade.
func main() {
	entry := flag.Float64("entry", 0, "spot entry price")
	tp := flag.Float64("tp", 0, "spot take-profit price")
	amount := flag.Float64("amount", 0, "spot coin amount")
	risk := flag.Float64("risk", 50, "risk percent of spot profit (0-100 or 0-1)")
	count := flag.Int("count", 3, "number of hedge legs")
	start := flag.Float64("start", 0, "grid start price (defaults to spot entry)")
	flag.Parse()

	calc := usecase.NewHedgeCalculator()
	setups, err := calc.ComputeLadder(*entry, *tp, *amount, *risk, *count, *start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Entry", "TP", "SL", "Risk $", "Profit $", "Coins", "Invest $"})
	for _, s := range setups {
		t.AppendRow(table.Row{s.Index, s.Entry, s.TP, s.SL, s.RiskAmount, s.PotentialProfit, s.CoinAmount, s.InvestAmount})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
