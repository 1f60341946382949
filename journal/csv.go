package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rustyeddy/equity/equity"
	"github.com/rustyeddy/equity/tradelog"
)

const timeLayout = "2006-01-02 15:04:05"

var curveColumns = []string{
	"cash_no_commission", "cumulative_commission", "cash_net",
	"value_open", "value_high", "value_low", "value_close",
	"equity_open", "equity_high", "equity_low", "equity_close",
	"realized_profit",
}

// CSVJournal writes the aggregate curve to EquityPath and, when
// PositionsDir is set, one <instrument>.csv per instrument.
type CSVJournal struct {
	EquityPath   string
	PositionsDir string
}

func NewCSV(equityPath, positionsDir string) *CSVJournal {
	return &CSVJournal{EquityPath: equityPath, PositionsDir: positionsDir}
}

func (j *CSVJournal) Record(_ Run, c *equity.Curve, _ tradelog.Events) error {
	if j.EquityPath != "" {
		if err := writeFile(j.EquityPath, func(w io.Writer) error { return WriteCurve(w, c) }); err != nil {
			return err
		}
	}
	if j.PositionsDir == "" {
		return nil
	}
	if err := os.MkdirAll(j.PositionsDir, 0755); err != nil {
		return err
	}
	for _, instr := range c.Instruments {
		path := filepath.Join(j.PositionsDir, fileSafe(instr)+".csv")
		rows := c.Positions[instr]
		if err := writeFile(path, func(w io.Writer) error { return WritePositions(w, rows) }); err != nil {
			return err
		}
	}
	return nil
}

func (j *CSVJournal) Close() error { return nil }

// CurveHeader is the aggregate header: time, one signed quantity column per
// instrument, then the cash, value, equity and realized profit columns.
func CurveHeader(instruments []string) []string {
	h := append([]string{"time"}, instruments...)
	return append(h, curveColumns...)
}

// WriteCurve writes the aggregate curve as CSV.
func WriteCurve(w io.Writer, c *equity.Curve) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CurveHeader(c.Instruments)); err != nil {
		return err
	}
	for i, r := range c.Rows {
		rec := []string{r.Time.Format(timeLayout)}
		for _, instr := range c.Instruments {
			rec = append(rec, f(c.Positions[instr][i].Quantity))
		}
		if err := cw.Write(append(rec, rowFields(r)...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePositions writes one instrument's curve as CSV.
func WritePositions(w io.Writer, rows []equity.PositionRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"time", "quantity"}, curveColumns...)); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.Time.Format(timeLayout), f(r.Quantity)}
		if err := cw.Write(append(rec, rowFields(r.Row)...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTrades writes normalised trade events as CSV.
func WriteTrades(w io.Writer, events tradelog.Events) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "instrument", "kind", "bar", "quantity", "price", "commission", "signal", "position"}); err != nil {
		return err
	}
	for _, e := range events {
		err := cw.Write([]string{
			e.Time.Format(timeLayout),
			e.Instrument,
			e.Kind.String(),
			strconv.Itoa(e.Bar),
			f(e.Quantity),
			f(e.Price),
			f(e.Commission),
			e.Signal,
			strconv.Itoa(e.Position),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func rowFields(r equity.Row) []string {
	return []string{
		f(r.CashNoCommission), f(r.Commission), f(r.CashNet),
		f(r.Value.Open), f(r.Value.High), f(r.Value.Low), f(r.Value.Close),
		f(r.Equity.Open), f(r.Equity.High), f(r.Equity.Low), f(r.Equity.Close),
		f(r.RealizedProfit),
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(fh); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
