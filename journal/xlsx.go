package journal

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rustyeddy/equity/equity"
	"github.com/rustyeddy/equity/tradelog"
)

const (
	runSheet    = "Run"
	equitySheet = "Equity"
	tradesSheet = "Trades"
	maxSheetLen = 31
)

// XLSXJournal writes a workbook with a Run summary sheet, the aggregate
// curve, one sheet per instrument and the trade events.
type XLSXJournal struct {
	Path string
}

func NewXLSX(path string) *XLSXJournal {
	return &XLSXJournal{Path: path}
}

func (j *XLSXJournal) Close() error { return nil }

func (j *XLSXJournal) Record(run Run, c *equity.Curve, events tradelog.Events) error {
	fx := excelize.NewFile()
	defer fx.Close()

	head, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := fx.SetSheetName(fx.GetSheetName(0), runSheet); err != nil {
		return err
	}
	if err := writeRunSheet(fx, head, run); err != nil {
		return err
	}

	rows := make([][]any, 0, c.Len())
	for i, r := range c.Rows {
		rec := []any{r.Time.Format(timeLayout)}
		for _, instr := range c.Instruments {
			rec = append(rec, c.Positions[instr][i].Quantity)
		}
		rows = append(rows, append(rec, rowArgs(r)...))
	}
	if err := writeSheet(fx, head, equitySheet, CurveHeader(c.Instruments), rows); err != nil {
		return err
	}

	used := map[string]bool{"run": true, "equity": true, "trades": true}
	for _, instr := range c.Instruments {
		name := SheetName(instr, used)
		rows = rows[:0]
		for _, r := range c.Positions[instr] {
			rows = append(rows, append([]any{r.Time.Format(timeLayout), r.Quantity}, rowArgs(r.Row)...))
		}
		header := append([]string{"time", "quantity"}, curveColumns...)
		if err := writeSheet(fx, head, name, header, rows); err != nil {
			return err
		}
	}

	rows = rows[:0]
	for _, e := range events {
		rows = append(rows, []any{
			e.Time.Format(timeLayout), e.Instrument, e.Kind.String(), e.Bar,
			e.Quantity, e.Price, e.Commission, e.Signal, e.Position,
		})
	}
	header := []string{"time", "instrument", "kind", "bar", "quantity", "price", "commission", "signal", "position"}
	if err := writeSheet(fx, head, tradesSheet, header, rows); err != nil {
		return err
	}

	fx.SetActiveSheet(0)
	if err := fx.SaveAs(j.Path); err != nil {
		return fmt.Errorf("save %s: %w", j.Path, err)
	}
	return nil
}

func writeRunSheet(fx *excelize.File, head int, r Run) error {
	pairs := [][]any{
		{"run_id", r.RunID},
		{"created", r.Created.UTC().Format(timeLayout)},
		{"trade_log", r.TradeLog},
		{"bar_size", r.BarSize},
		{"origin", r.Origin.UTC().Format(timeLayout)},
		{"start", r.Start.UTC().Format(timeLayout)},
		{"end", r.End.UTC().Format(timeLayout)},
		{"instruments", strings.Join(r.Instruments, ",")},
		{"events", r.Events},
		{"fictitious_dropped", r.FictitiousDropped},
		{"bars", r.Bars},
		{"final_equity", r.FinalEquity},
		{"final_realized", r.FinalRealized},
		{"min_equity", r.MinEquity},
		{"max_equity", r.MaxEquity},
		{"max_drawdown", r.MaxDrawdown},
		{"max_drawdown_pct", r.MaxDrawdownPct},
		{"total_commission", r.TotalCommission},
	}
	return writeSheet(fx, head, runSheet, []string{"field", "value"}, pairs)
}

func writeSheet(fx *excelize.File, head int, sheet string, header []string, rows [][]any) error {
	if idx, _ := fx.GetSheetIndex(sheet); idx < 0 {
		if _, err := fx.NewSheet(sheet); err != nil {
			return err
		}
	}

	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := fx.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := fx.SetCellStyle(sheet, "A1", last, head); err != nil {
		return err
	}

	for i, rec := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := fx.SetSheetRow(sheet, cell, &rec); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+2, err)
		}
	}

	return fx.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// SheetName turns an instrument into a worksheet name unique within used
// (keys lower-cased). Characters Excel rejects become '_' and the result is
// cut to 31 runes.
func SheetName(instrument string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, instrument)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "instrument"
	}
	name = truncate(name, maxSheetLen)

	base := name
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		name = truncate(base, maxSheetLen-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
