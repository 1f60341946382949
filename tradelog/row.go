package tradelog

import (
	"math"
	"strings"
	"time"
)

// Shape says which sides of a trade-log row are populated.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeEntry
	ShapeExit
	ShapeCombined
)

func (s Shape) String() string {
	switch s {
	case ShapeEntry:
		return "entry"
	case ShapeExit:
		return "exit"
	case ShapeCombined:
		return "combined"
	}
	return "empty"
}

type Side int

const (
	SideUnknown Side = iota
	Long
	Short
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	}
	return "unknown"
}

// Sign is +1 for long, -1 for short and 0 when unknown.
func (s Side) Sign() float64 {
	switch s {
	case Long:
		return 1
	case Short:
		return -1
	}
	return 0
}

func parseSide(s string) Side {
	switch strings.ToLower(s) {
	case "длинная", "long", "buy", "покупка":
		return Long
	case "короткая", "short", "sell", "продажа":
		return Short
	}
	return SideUnknown
}

// Leg is one side (entry or exit) of a trade-log row.
type Leg struct {
	Execution  string
	Signal     string
	Bar        int
	Time       time.Time
	Price      float64
	Commission float64 // always >= 0
}

// Fictitious reports whether the tester synthesised this fill.
func (l *Leg) Fictitious() bool {
	return l != nil && isFictitious(l.Execution)
}

// Analytics carries the per-position statistics the tool exports next to
// the fills. They are informational; NaN means the cell was empty.
type Analytics struct {
	AvgEntryPrice float64
	PL            float64
	TradePL       float64
	PLPerLot      float64
	RealizedPL    float64
	OpenPL        float64
	BarsHeld      float64
	IncomePerBar  float64
	TotalPL       float64
	ChangePct     float64 // fraction, 0.05 for 5 %
	MAE           float64
	MAEPct        float64
	MFE           float64
	MFEPct        float64
}

// Row is one normalised trade-log row.
type Row struct {
	Line      int // 1-based data row in the source file
	Position  int // sequence number, forward filled onto exit-only rows
	Side      Side
	Symbol    string
	Lots      float64
	LotChange float64
	Open      bool // position still open at the end of the test
	Entry     *Leg
	Exit      *Leg
	Analytics Analytics
}

func (r *Row) Shape() Shape {
	switch {
	case r.Entry != nil && r.Exit != nil:
		return ShapeCombined
	case r.Entry != nil:
		return ShapeEntry
	case r.Exit != nil:
		return ShapeExit
	}
	return ShapeEmpty
}

// Events expands the row into trade events. Single-sided rows carry the lot
// change as quantity; a combined row opens the full lots in the direction of
// the position and closes them again.
func (r *Row) Events() []TradeEvent {
	ev := func(kind Kind, leg *Leg, qty float64) TradeEvent {
		return TradeEvent{
			Instrument: r.Symbol,
			Kind:       kind,
			Time:       leg.Time,
			Bar:        leg.Bar,
			Quantity:   qty,
			Price:      leg.Price,
			Commission: leg.Commission,
			Signal:     leg.Signal,
			Position:   r.Position,
			Line:       r.Line,
		}
	}

	switch r.Shape() {
	case ShapeEntry:
		return []TradeEvent{ev(Entry, r.Entry, r.LotChange)}
	case ShapeExit:
		return []TradeEvent{ev(Exit, r.Exit, r.LotChange)}
	case ShapeCombined:
		q := math.Abs(r.Lots) * r.Side.Sign()
		return []TradeEvent{ev(Entry, r.Entry, q), ev(Exit, r.Exit, -q)}
	}
	return nil
}
