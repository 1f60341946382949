package equity

import "time"

// OHLC holds one value per price field of a bar.
type OHLC struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Flat is an OHLC with every field set to v.
func Flat(v float64) OHLC { return OHLC{v, v, v, v} }

func (o OHLC) Scale(k float64) OHLC {
	return OHLC{o.Open * k, o.High * k, o.Low * k, o.Close * k}
}

func (o OHLC) Plus(v float64) OHLC {
	return OHLC{o.Open + v, o.High + v, o.Low + v, o.Close + v}
}

func (o OHLC) Add(p OHLC) OHLC {
	return OHLC{o.Open + p.Open, o.High + p.High, o.Low + p.Low, o.Close + p.Close}
}

// Row is one bar of an equity curve. Cash and commission are running totals
// since the first trade.
type Row struct {
	Time             time.Time
	CashNoCommission float64
	Commission       float64
	CashNet          float64
	Value            OHLC
	Equity           OHLC
	RealizedProfit   float64
}

// PositionRow is one bar of a single instrument's curve.
type PositionRow struct {
	Row
	Quantity float64

	// Traded is set on bars where at least one fill happened; TradePrice is
	// then the price of the bar's latest fill, the lowest one when several
	// fills share that timestamp.
	Traded     bool
	TradePrice float64
}
