package journal

import (
	"time"

	"github.com/rustyeddy/equity/equity"
	"github.com/rustyeddy/equity/tradelog"
)

// Run mirrors the runs table: one equity curve reconstruction.
type Run struct {
	RunID    string
	Created  time.Time
	TradeLog string
	BarSize  string

	Origin time.Time
	Start  time.Time
	End    time.Time

	Instruments       []string
	Events            int
	FictitiousDropped int

	// Curve statistics
	Bars            int
	FinalEquity     float64
	FinalRealized   float64
	MinEquity       float64
	MaxEquity       float64
	MaxDrawdown     float64
	MaxDrawdownPct  float64
	TotalCommission float64

	OrgPath string
	Notes   []string
}

// SetStats copies curve statistics onto the run.
func (r *Run) SetStats(s equity.Stats) {
	r.Bars = s.Bars
	r.FinalEquity = s.FinalEquity
	r.FinalRealized = s.FinalRealized
	r.MinEquity = s.MinEquity
	r.MaxEquity = s.MaxEquity
	r.MaxDrawdown = s.MaxDrawdown
	r.MaxDrawdownPct = s.MaxDrawdownPct
	r.TotalCommission = s.TotalCommission
}

// Journal is an output sink for a finished run.
type Journal interface {
	Record(run Run, curve *equity.Curve, events tradelog.Events) error
	Close() error
}
