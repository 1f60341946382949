package equity

import "time"

// Stats summarises a curve on equity closes.
type Stats struct {
	Bars            int
	Start           time.Time
	End             time.Time
	FinalEquity     float64
	FinalRealized   float64
	MinEquity       float64
	MaxEquity       float64
	MaxDrawdown     float64 // peak to trough, >= 0
	MaxDrawdownPct  float64 // relative to the peak; 0 while the peak is not positive
	TotalCommission float64
	FinalQuantity   map[string]float64
}

func (c *Curve) Stats() Stats {
	s := Stats{Bars: len(c.Rows), FinalQuantity: make(map[string]float64, len(c.Instruments))}
	if len(c.Rows) == 0 {
		return s
	}

	first, last := c.Rows[0], c.Rows[len(c.Rows)-1]
	s.Start, s.End = first.Time, last.Time
	s.FinalEquity = last.Equity.Close
	s.FinalRealized = last.RealizedProfit
	s.TotalCommission = last.Commission
	s.MinEquity, s.MaxEquity = first.Equity.Close, first.Equity.Close

	peak := first.Equity.Close
	for _, r := range c.Rows {
		e := r.Equity.Close
		if e < s.MinEquity {
			s.MinEquity = e
		}
		if e > s.MaxEquity {
			s.MaxEquity = e
		}
		if e > peak {
			peak = e
		}
		if dd := peak - e; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
		if peak > 0 {
			if pct := (peak - e) / peak; pct > s.MaxDrawdownPct {
				s.MaxDrawdownPct = pct
			}
		}
	}

	for _, instr := range c.Instruments {
		if rows := c.Positions[instr]; len(rows) > 0 {
			s.FinalQuantity[instr] = rows[len(rows)-1].Quantity
		}
	}
	return s
}
