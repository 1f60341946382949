package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PrintSummary renders the run, per-instrument and curve tables to w.
func PrintSummary(w io.Writer, res *Result) {
	bar := res.Bar.String()
	if res.BarInferred {
		bar += " (inferred)"
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("EQUITY CURVE")
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Run ID", res.RunID},
		{"Created", res.Created.Format(time.RFC3339)},
		{"Trade log", res.TradeLog},
		{"Bar size", bar},
		{"Origin", res.Origin.Format(time.DateTime)},
		{"Period", fmt.Sprintf("%s .. %s", res.Start.Format(time.DateTime), res.End.Format(time.DateTime))},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Rows", res.LogStats.Rows},
		{"Events", len(res.Events)},
		{"Fictitious dropped", res.FictitiousDropped},
		{"Forced close dropped", res.LogStats.ForcedClose},
		{"Open at end", res.LogStats.Open},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, Align: text.AlignLeft},
	})
	t.Render()
	fmt.Fprintln(w)

	t = table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("INSTRUMENTS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Instrument", "Events", "Quantity", "Cash net", "Realized", "Equity", "Gaps"})
	last := res.Curve.Len() - 1
	for _, instr := range res.Curve.Instruments {
		rows := res.Curve.Positions[instr]
		var qty, cash, realized, eq float64
		if last >= 0 {
			r := rows[last]
			qty, cash, realized, eq = r.Quantity, r.CashNet, r.RealizedProfit, r.Equity.Close
		}
		t.AppendRow(table.Row{
			instr,
			len(res.Events.ForInstrument(instr)),
			fmt.Sprintf("%g", qty),
			fmt.Sprintf("%.2f", cash),
			fmt.Sprintf("%.2f", realized),
			fmt.Sprintf("%.2f", eq),
			len(res.Gaps[instr]),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(w)

	s := res.Stats
	t = table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("CURVE")
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Bars", s.Bars},
		{"Final equity", fmt.Sprintf("%.2f", s.FinalEquity)},
		{"Realized profit", fmt.Sprintf("%.2f", s.FinalRealized)},
		{"Min equity", fmt.Sprintf("%.2f", s.MinEquity)},
		{"Max equity", fmt.Sprintf("%.2f", s.MaxEquity)},
		{"Max drawdown", fmt.Sprintf("%.2f (%.2f%%)", s.MaxDrawdown, s.MaxDrawdownPct*100)},
		{"Commission", fmt.Sprintf("%.2f", s.TotalCommission)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, Align: text.AlignRight},
	})
	t.Render()

	if notes := res.Notes(); len(notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, n := range notes {
			fmt.Fprintf(w, "- %s\n", n)
		}
	}
}
