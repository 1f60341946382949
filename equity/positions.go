package equity

import (
	"sort"
	"time"

	"github.com/rustyeddy/equity/market"
	"github.com/rustyeddy/equity/tradelog"
)

type barTrades struct {
	qty   float64
	gross float64
	fee   float64
	last  time.Time // latest fill in the bar
	px    float64   // lowest price among fills at last
}

func (bt *barTrades) add(e tradelog.TradeEvent) {
	switch {
	case bt.last.IsZero() || e.Time.After(bt.last):
		bt.last, bt.px = e.Time, e.Price
	case e.Time.Equal(bt.last) && e.Price < bt.px:
		bt.px = e.Price
	}
	bt.qty += e.Quantity
	bt.gross -= e.Price * e.Quantity
	bt.fee += e.Commission
}

// Positions folds one instrument's trade events over its resampled candles.
// Every event is snapped to the bar containing it and fills sharing a bar are
// summed. A bar's trade price is the price of its latest fill; fills sharing
// that timestamp resolve to the lowest of their prices. The timeline is the
// union of candle bars and trade bars. A trade bar without a candle is marked
// at the previous close, or at its trade price when no candle precedes it.
//
// events must belong to instrument; candles.Bar must be set.
func Positions(instrument string, events []tradelog.TradeEvent, candles *market.CandleSet, origin time.Time) []PositionRow {
	trades := make(map[time.Time]*barTrades)
	for _, e := range events {
		key := market.Bucket(candles.Bar, origin, e.Time).UTC()
		bt, ok := trades[key]
		if !ok {
			bt = &barTrades{}
			trades[key] = bt
		}
		bt.add(e)
	}

	byTime := make(map[time.Time]market.Candle, len(candles.Candles))
	timeline := make([]time.Time, 0, len(candles.Candles)+len(trades))
	for _, c := range candles.Candles {
		t := c.Time.UTC()
		byTime[t] = c
		timeline = append(timeline, t)
	}
	for t := range trades {
		if _, ok := byTime[t]; !ok {
			timeline = append(timeline, t)
		}
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })

	var (
		qty, gross, fee float64
		prevClose       float64
		haveClose       bool
	)
	rows := make([]PositionRow, 0, len(timeline))
	for _, t := range timeline {
		bt, traded := trades[t]
		if traded {
			qty += bt.qty
			gross += bt.gross
			fee += bt.fee
		}

		var px OHLC
		if c, ok := byTime[t]; ok {
			px = OHLC{c.Open, c.High, c.Low, c.Close}
			prevClose, haveClose = c.Close, true
		} else if haveClose {
			px = Flat(prevClose)
		} else {
			px = Flat(bt.px)
		}

		r := PositionRow{Quantity: qty, Traded: traded}
		if traded {
			r.TradePrice = bt.px
		}
		r.Time = t
		r.CashNoCommission = gross
		r.Commission = fee
		r.CashNet = gross - fee
		r.Value = px.Scale(qty)
		r.Equity = r.Value.Plus(r.CashNet)
		rows = append(rows, r)
	}
	return rows
}

// RealizedProfit fills RealizedProfit on a copy of rows. On a bar with fills
// it is the position valued at the bar's trade price plus net cash; other bars
// carry the last value forward, and bars before the first fill are zero.
func RealizedProfit(rows []PositionRow) []PositionRow {
	out := make([]PositionRow, len(rows))
	realized := 0.0
	for i, r := range rows {
		if r.Traded {
			realized = r.Quantity*r.TradePrice + r.CashNet
		}
		r.RealizedProfit = realized
		out[i] = r
	}
	return out
}
