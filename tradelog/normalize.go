package tradelog

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/rustyeddy/equity/market"
)

// ErrEmptyTradeLog is returned when no trade event survives normalisation.
var ErrEmptyTradeLog = errors.New("trade log has no trade events")

var errMissingValue = errors.New("value required")

// Options control how a trade log is decoded.
type Options struct {
	Encoding  string // auto, utf-8, utf-16, windows-1251
	Delimiter rune   // 0 detects ',' then ';'
}

// Stats summarises a normalisation pass.
type Stats struct {
	Rows        int // data rows read, blank lines excluded
	ForcedClose int // open-sentinel rows without an entry, dropped
	Entry       int
	Exit        int
	Combined    int
	Empty       int
	Open        int // positions still open at the end of the test
}

// Log is a normalised trade log.
type Log struct {
	File  string
	Rows  []Row
	Stats Stats

	fictitious map[string]struct{}
}

func ReadFile(path string, opts Options) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, path, opts)
}

// Read parses and normalises a trade log. name is only used in errors.
func Read(r io.Reader, name string, opts Options) (*Log, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	text, err := decode(raw, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	recs, err := readRecords(text, name, opts.Delimiter)
	if err != nil {
		return nil, err
	}

	lay := newLayout(recs[0])
	if miss := lay.missing(); len(miss) > 0 {
		return nil, fmt.Errorf("%w: %s: missing columns %s", ErrMalformedInput, name, strings.Join(miss, ", "))
	}

	log := &Log{File: name, fictitious: make(map[string]struct{})}
	p := &rowParser{file: name, lay: lay}
	seq := 0

	for i, rec := range recs[1:] {
		if blank(rec) {
			continue
		}
		log.Stats.Rows++

		cells := lay.cells(rec)
		if cells[colEntryDate] == "" && isOpenSentinel(cells[colExitDate]) {
			log.Stats.ForcedClose++
			continue
		}

		row, err := p.parse(cells, i+1)
		if err != nil {
			return nil, err
		}
		if row.Entry != nil {
			seq++
		}
		row.Position = seq

		switch row.Shape() {
		case ShapeEntry:
			log.Stats.Entry++
		case ShapeExit:
			log.Stats.Exit++
		case ShapeCombined:
			log.Stats.Combined++
		default:
			log.Stats.Empty++
		}
		if row.Open {
			log.Stats.Open++
		}

		if row.Entry.Fictitious() {
			log.fictitious[row.Entry.Signal] = struct{}{}
		}
		if row.Exit.Fictitious() {
			log.fictitious[row.Exit.Signal] = struct{}{}
		}
		log.Rows = append(log.Rows, row)
	}
	return log, nil
}

// FictitiousSignals lists, sorted, the signal names that appear on at least
// one synthetic fill.
func (l *Log) FictitiousSignals() []string {
	out := make([]string, 0, len(l.fictitious))
	for s := range l.fictitious {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Events returns the trade events of the log ordered by time; entries come
// before exits of the same instant. With removeFictitious, every event whose
// signal is in FictitiousSignals is dropped and counted.
func (l *Log) Events(removeFictitious bool) (Events, int, error) {
	var entries, exits Events
	dropped := 0
	for i := range l.Rows {
		for _, ev := range l.Rows[i].Events() {
			if removeFictitious {
				if _, ok := l.fictitious[ev.Signal]; ok {
					dropped++
					continue
				}
			}
			if ev.Kind == Entry {
				entries = append(entries, ev)
			} else {
				exits = append(exits, ev)
			}
		}
	}

	out := append(entries, exits...)
	if len(out) == 0 {
		return nil, dropped, fmt.Errorf("%s: %w", l.File, ErrEmptyTradeLog)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, dropped, nil
}

func blank(rec []string) bool {
	for _, s := range rec {
		if clean(s) != "" {
			return false
		}
	}
	return true
}

func (l *layout) cells(rec []string) [numColumns]string {
	var out [numColumns]string
	for c, i := range l.idx {
		if i >= 0 && i < len(rec) {
			out[c] = clean(rec[i])
		}
	}
	if out[colPosition] == "-" {
		out[colPosition] = "0"
	}
	if isOpenSentinel(out[colExitDate]) {
		for _, c := range exitColumns {
			if c != colExitDate {
				out[c] = ""
			}
		}
	}
	return out
}

type rowParser struct {
	file  string
	lay   *layout
	cells [numColumns]string
	line  int
}

func (p *rowParser) fail(c column, err error) error {
	return &market.ParseError{File: p.file, Row: p.line, Column: p.lay.name(c), Value: p.cells[c], Err: err}
}

func (p *rowParser) number(c column, required bool) (float64, error) {
	s := p.cells[c]
	if s == "" {
		if required {
			return 0, p.fail(c, errMissingValue)
		}
		return math.NaN(), nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, p.fail(c, err)
	}
	return v, nil
}

func (p *rowParser) percent(c column) (float64, error) {
	if p.cells[c] == "" {
		return math.NaN(), nil
	}
	v, err := parsePercent(p.cells[c])
	if err != nil {
		return 0, p.fail(c, err)
	}
	return v, nil
}

func (p *rowParser) leg(exec, signal, bar, date, clock, price, comm column) (*Leg, error) {
	if p.cells[date] == "" {
		return nil, nil
	}
	t, err := parseDateTime(p.cells[date], p.cells[clock])
	if err != nil {
		return nil, p.fail(date, err)
	}
	if p.cells[bar] == "" {
		return nil, p.fail(bar, errMissingValue)
	}
	b, err := parseBar(p.cells[bar])
	if err != nil {
		return nil, p.fail(bar, err)
	}
	px, err := p.number(price, true)
	if err != nil {
		return nil, err
	}
	fee, err := p.number(comm, false)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(fee) {
		fee = 0
	}
	return &Leg{
		Execution:  p.cells[exec],
		Signal:     p.cells[signal],
		Bar:        b,
		Time:       t,
		Price:      px,
		Commission: math.Abs(fee),
	}, nil
}

func (p *rowParser) parse(cells [numColumns]string, line int) (Row, error) {
	p.cells, p.line = cells, line
	row := Row{
		Line:   line,
		Symbol: cells[colSymbol],
		Side:   parseSide(cells[colSide]),
		Open:   isOpenSentinel(cells[colExitDate]),
	}

	var err error
	row.Entry, err = p.leg(colEntryExec, colEntrySignal, colEntryBar, colEntryDate, colEntryTime, colEntryPrice, colEntryCommission)
	if err != nil {
		return Row{}, err
	}
	if !row.Open {
		row.Exit, err = p.leg(colExitExec, colExitSignal, colExitBar, colExitDate, colExitTime, colExitPrice, colExitCommission)
		if err != nil {
			return Row{}, err
		}
	}

	shape := row.Shape()
	if shape != ShapeEmpty && row.Symbol == "" {
		return Row{}, p.fail(colSymbol, errMissingValue)
	}
	switch shape {
	case ShapeEntry, ShapeExit:
		if row.LotChange, err = p.number(colLotChange, true); err != nil {
			return Row{}, err
		}
		if row.Lots, err = p.number(colLots, false); err != nil {
			return Row{}, err
		}
	case ShapeCombined:
		if row.Lots, err = p.number(colLots, true); err != nil {
			return Row{}, err
		}
		if row.Side == SideUnknown {
			return Row{}, p.fail(colSide, fmt.Errorf("unknown position side"))
		}
		if row.LotChange, err = p.number(colLotChange, false); err != nil {
			return Row{}, err
		}
	}

	if _, err := p.number(colPosition, false); err != nil {
		return Row{}, err
	}
	if err := p.analytics(&row.Analytics); err != nil {
		return Row{}, err
	}
	return row, nil
}

func (p *rowParser) analytics(a *Analytics) error {
	fields := []struct {
		c   column
		dst *float64
	}{
		{colAvgEntryPrice, &a.AvgEntryPrice},
		{colPL, &a.PL},
		{colTradePL, &a.TradePL},
		{colPLPerLot, &a.PLPerLot},
		{colRealizedPL, &a.RealizedPL},
		{colOpenPL, &a.OpenPL},
		{colBarsHeld, &a.BarsHeld},
		{colIncomePerBar, &a.IncomePerBar},
		{colTotalPL, &a.TotalPL},
		{colMAE, &a.MAE},
		{colMFE, &a.MFE},
	}
	for _, f := range fields {
		v, err := p.number(f.c, false)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	pct := []struct {
		c   column
		dst *float64
	}{
		{colChangePct, &a.ChangePct},
		{colMAEPct, &a.MAEPct},
		{colMFEPct, &a.MFEPct},
	}
	for _, f := range pct {
		v, err := p.percent(f.c)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}
