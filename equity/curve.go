package equity

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/equity/market"
	"github.com/rustyeddy/equity/tradelog"
)

// Curve is the portfolio equity curve. Rows is the aggregate across
// instruments; Positions holds each instrument's rows aligned index for
// index with Rows.
type Curve struct {
	Instruments []string
	Rows        []Row
	Positions   map[string][]PositionRow
}

func (c *Curve) Len() int { return len(c.Rows) }

// Build runs the position and realized-profit folds for every instrument in
// events and merges them. Each instrument needs a resampled candle set.
func Build(events tradelog.Events, sets map[string]*market.CandleSet, origin time.Time) (*Curve, error) {
	instruments := events.Instruments()
	per := make(map[string][]PositionRow, len(instruments))
	for _, instr := range instruments {
		cs, ok := sets[instr]
		if !ok || cs == nil {
			return nil, &market.MissingInstrumentError{Instrument: instr, Location: "candle sets"}
		}
		if cs.Bar.IsZero() {
			return nil, fmt.Errorf("candles for %s are not resampled", instr)
		}
		per[instr] = RealizedProfit(Positions(instr, events.ForInstrument(instr), cs, origin))
	}
	return Merge(instruments, per), nil
}

// Merge outer-joins the instrument curves on time. On a bar an instrument
// has no row for, its running totals, quantity and realized profit carry
// forward (zero before its first row), its value stays flat at the last
// close value and its equity is recomputed from value and cash.
func Merge(instruments []string, per map[string][]PositionRow) *Curve {
	seen := make(map[time.Time]bool)
	var timeline []time.Time
	for _, instr := range instruments {
		for _, r := range per[instr] {
			if !seen[r.Time] {
				seen[r.Time] = true
				timeline = append(timeline, r.Time)
			}
		}
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })

	curve := &Curve{
		Instruments: append([]string(nil), instruments...),
		Rows:        make([]Row, len(timeline)),
		Positions:   make(map[string][]PositionRow, len(instruments)),
	}
	for i, t := range timeline {
		curve.Rows[i].Time = t
	}

	for _, instr := range instruments {
		src := per[instr]
		aligned := make([]PositionRow, len(timeline))
		j := 0
		var last PositionRow
		for i, t := range timeline {
			var r PositionRow
			if j < len(src) && src[j].Time.Equal(t) {
				r = src[j]
				j++
			} else {
				r = carry(last, t)
			}
			aligned[i] = r
			last = r

			agg := &curve.Rows[i]
			agg.CashNoCommission += r.CashNoCommission
			agg.Commission += r.Commission
			agg.CashNet += r.CashNet
			agg.Value = agg.Value.Add(r.Value)
			agg.Equity = agg.Equity.Add(r.Equity)
			agg.RealizedProfit += r.RealizedProfit
		}
		curve.Positions[instr] = aligned
	}
	return curve
}

func carry(last PositionRow, t time.Time) PositionRow {
	r := PositionRow{Quantity: last.Quantity}
	r.Time = t
	r.CashNoCommission = last.CashNoCommission
	r.Commission = last.Commission
	r.CashNet = last.CashNet
	r.Value = Flat(last.Value.Close)
	r.Equity = r.Value.Plus(r.CashNet)
	r.RealizedProfit = last.RealizedProfit
	return r
}
