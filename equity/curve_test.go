package equity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/equity/market"
	"github.com/rustyeddy/equity/tradelog"
)

var (
	t0     = time.Date(2021, 1, 4, 9, 0, 0, 0, time.UTC)
	hourly = market.BarSize{Unit: market.Hours, N: 1}
)

func at(h int) time.Time { return t0.Add(time.Duration(h) * time.Hour) }

func candle(h int, o, hi, lo, c float64) market.Candle {
	return market.Candle{Time: at(h), Open: o, High: hi, Low: lo, Close: c, Volume: 1}
}

func hourlySet(instr string, candles ...market.Candle) *market.CandleSet {
	return &market.CandleSet{Instrument: instr, Bar: hourly, Candles: candles}
}

func fill(instr string, h int, minutes int, qty, price, fee float64) tradelog.TradeEvent {
	kind := tradelog.Entry
	if qty < 0 {
		kind = tradelog.Exit
	}
	return tradelog.TradeEvent{
		Instrument: instr,
		Kind:       kind,
		Time:       at(h).Add(time.Duration(minutes) * time.Minute),
		Quantity:   qty,
		Price:      price,
		Commission: fee,
	}
}

// buy 10 @ 100, buy 5 @ 110, sell 15 @ 120, one commission unit each
func scenario() (tradelog.Events, *market.CandleSet) {
	events := tradelog.Events{
		fill("BTC", 1, 0, 10, 100, 1),
		fill("BTC", 2, 0, 5, 110, 1),
		fill("BTC", 3, 0, -15, 120, 1),
	}
	set := hourlySet("BTC",
		candle(0, 100, 100, 100, 100),
		candle(1, 100, 102, 99, 101),
		candle(2, 110, 112, 108, 111),
		candle(3, 120, 121, 119, 120),
		candle(4, 121, 123, 120, 122),
	)
	return events, set
}

func TestPositionsScenario(t *testing.T) {
	events, set := scenario()
	rows := RealizedProfit(Positions("BTC", events, set, t0))
	require.Len(t, rows, 5)

	var qty, cash, realized []float64
	for _, r := range rows {
		qty = append(qty, r.Quantity)
		cash = append(cash, r.CashNet)
		realized = append(realized, r.RealizedProfit)
	}
	assert.Equal(t, []float64{0, 10, 15, 0, 0}, qty)
	assert.Equal(t, []float64{0, -1001, -1552, 247, 247}, cash)
	assert.Equal(t, []float64{0, -1, 98, 247, 247}, realized)

	assert.Equal(t, 3.0, rows[4].Commission)
	assert.Equal(t, 250.0, rows[4].CashNoCommission)
	assert.Equal(t, OHLC{1000, 1020, 990, 1010}, rows[1].Value)
	assert.Equal(t, OHLC{-1, 19, -11, 9}, rows[1].Equity)
	assert.Equal(t, Flat(247), rows[4].Equity)
}

func TestPositionsDoesNotMutate(t *testing.T) {
	events, set := scenario()
	before := append([]market.Candle(nil), set.Candles...)
	evBefore := append(tradelog.Events(nil), events...)

	rows := Positions("BTC", events, set, t0)
	_ = RealizedProfit(rows)

	assert.Equal(t, before, set.Candles)
	assert.Equal(t, evBefore, events)
	assert.Zero(t, rows[0].RealizedProfit)
}

func TestReconciliation(t *testing.T) {
	events := tradelog.Events{
		fill("X", 0, 5, 3, 10, 0.1),
		fill("X", 0, 40, 2, 11, 0.1),
		fill("X", 2, 0, -4, 12, 0.1),
		fill("X", 5, 59, 7, 9, 0.2),
	}
	set := hourlySet("X",
		candle(0, 10, 11, 9, 10),
		candle(1, 10, 12, 10, 11),
		candle(2, 11, 13, 11, 12),
		candle(6, 9, 9, 8, 9),
	)
	rows := Positions("X", events, set, t0)

	sum := 0.0
	for _, e := range events {
		sum += e.Quantity
	}
	assert.Equal(t, sum, rows[len(rows)-1].Quantity)
	assert.Equal(t, events.NetQuantity("X"), rows[len(rows)-1].Quantity)

	// trades snap to the bar containing them: 00:05 and 00:40 share bar 0
	assert.Equal(t, at(0), rows[0].Time)
	assert.Equal(t, 5.0, rows[0].Quantity)
	assert.Equal(t, 11.0, rows[0].TradePrice, "latest fill of the bar")

	// 05:59 has no candle; it becomes its own bar marked at the last close
	var found bool
	for _, r := range rows {
		if r.Time.Equal(at(5)) {
			found = true
			assert.True(t, r.Traded)
			assert.Equal(t, Flat(12*8), r.Value)
		}
	}
	assert.True(t, found)
}

func TestTradePriceLatestFill(t *testing.T) {
	t.Parallel()

	set := hourlySet("Z", candle(0, 95, 101, 89, 100), candle(1, 100, 100, 100, 100))
	tests := []struct {
		name     string
		events   tradelog.Events
		price    float64
		realized float64
	}{
		{
			name:     "later fill wins",
			events:   tradelog.Events{fill("Z", 0, 0, 10, 90, 0), fill("Z", 0, 30, 10, 100, 0)},
			price:    100,
			realized: 20*100 - 1900,
		},
		{
			name:     "order of events does not matter",
			events:   tradelog.Events{fill("Z", 0, 30, 10, 100, 0), fill("Z", 0, 0, 10, 90, 0)},
			price:    100,
			realized: 100,
		},
		{
			name: "lowest among fills at the latest time",
			events: tradelog.Events{
				fill("Z", 0, 0, 10, 90, 0),
				fill("Z", 0, 30, 5, 100, 0),
				fill("Z", 0, 30, 5, 96, 0),
			},
			price:    96,
			realized: 20*96 - (900 + 500 + 480),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := RealizedProfit(Positions("Z", tt.events, set, t0))
			require.Len(t, rows, 2)
			assert.True(t, rows[0].Traded)
			assert.Equal(t, tt.price, rows[0].TradePrice)
			assert.InDelta(t, tt.realized, rows[0].RealizedProfit, 1e-9)
			assert.InDelta(t, tt.realized, rows[1].RealizedProfit, 1e-9)
		})
	}
}

func TestMarkWithoutPriorCandle(t *testing.T) {
	events := tradelog.Events{
		fill("Y", 0, 0, 2, 50, 0),
		fill("Y", 0, 10, 1, 48, 0),
	}
	set := hourlySet("Y", candle(2, 55, 56, 54, 55))
	rows := Positions("Y", events, set, t0)

	require.Len(t, rows, 2)
	assert.Equal(t, Flat(3*48), rows[0].Value)
	assert.Equal(t, OHLC{165, 168, 162, 165}, rows[1].Value)
}

// Realized profit values the open position at the latest fill, so equity
// splits into realized profit plus the move from that fill to the close.
func TestRealizedAtLastFillPrice(t *testing.T) {
	events, set := scenario()
	events = events[:2] // leave 15 open
	rows := RealizedProfit(Positions("BTC", events, set, t0))
	require.Len(t, rows, len(set.Candles))

	last := rows[len(rows)-1]
	assert.Equal(t, 15.0, last.Quantity)
	assert.InDelta(t, 15*110-1552.0, last.RealizedProfit, 1e-9)
	assert.InDelta(t, 15*122-1552.0, last.Equity.Close, 1e-9)

	// fill prices taken from the events, not from the rows
	fillPx := map[time.Time]float64{at(1): 100, at(2): 110}
	var lastPx float64
	for i, r := range rows {
		if px, ok := fillPx[r.Time]; ok {
			lastPx = px
		}
		got := r.RealizedProfit + r.Quantity*(set.Candles[i].Close-lastPx)
		assert.InDelta(t, r.Equity.Close, got, 1e-9, "bar %s", r.Time)
	}

	// against the average entry cost the identity does not hold: realized
	// profit already carries the move from 103.33 to the last fill at 110
	basis := (10*100 + 5*110) / 15.0
	open := last.Quantity * (set.Candles[len(set.Candles)-1].Close - basis)
	assert.InDelta(t, 15*(110-basis), last.RealizedProfit+open-last.Equity.Close, 1e-9)
}

func TestMerge(t *testing.T) {
	a := RealizedProfit(Positions("A", tradelog.Events{fill("A", 1, 0, 1, 10, 0)},
		hourlySet("A", candle(0, 10, 10, 10, 10), candle(1, 10, 10, 10, 10), candle(2, 12, 12, 12, 12), candle(3, 13, 13, 13, 13)), t0))
	b := RealizedProfit(Positions("B", tradelog.Events{fill("B", 2, 0, 2, 5, 1)},
		hourlySet("B", candle(2, 5, 6, 4, 5), candle(4, 7, 8, 6, 7)), t0))

	c := Merge([]string{"A", "B"}, map[string][]PositionRow{"A": a, "B": b})
	require.Equal(t, 5, c.Len())
	for _, instr := range c.Instruments {
		require.Len(t, c.Positions[instr], c.Len())
	}

	pb := c.Positions["B"]
	assert.Zero(t, pb[0].Quantity, "before its first bar")
	assert.Zero(t, pb[1].Equity.Close)
	assert.Equal(t, 2.0, pb[3].Quantity)
	assert.Equal(t, Flat(10), pb[3].Value, "flat at the last close value")
	assert.Equal(t, Flat(-1), pb[3].Equity)

	pa := c.Positions["A"]
	assert.Equal(t, Flat(13), pa[4].Value)
	assert.Equal(t, 3.0, pa[4].Equity.Close)

	for i, r := range c.Rows {
		assert.InDelta(t, pa[i].Equity.Close+pb[i].Equity.Close, r.Equity.Close, 1e-9)
		assert.InDelta(t, pa[i].CashNet+pb[i].CashNet, r.CashNet, 1e-9)
		assert.InDelta(t, pa[i].RealizedProfit+pb[i].RealizedProfit, r.RealizedProfit, 1e-9)
	}
}

func TestBuild(t *testing.T) {
	events, set := scenario()
	c, err := Build(events, map[string]*market.CandleSet{"BTC": set}, t0)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC"}, c.Instruments)
	assert.Equal(t, 247.0, c.Rows[c.Len()-1].RealizedProfit)

	_, err = Build(events, map[string]*market.CandleSet{}, t0)
	var mi *market.MissingInstrumentError
	assert.True(t, errors.As(err, &mi))

	_, err = Build(events, map[string]*market.CandleSet{"BTC": {Instrument: "BTC", Candles: set.Candles}}, t0)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	events, set := scenario()
	c, err := Build(events, map[string]*market.CandleSet{"BTC": set}, t0)
	require.NoError(t, err)

	s := c.Stats()
	assert.Equal(t, 5, s.Bars)
	assert.Equal(t, at(0), s.Start)
	assert.Equal(t, at(4), s.End)
	assert.Equal(t, 247.0, s.FinalEquity)
	assert.Equal(t, 247.0, s.FinalRealized)
	assert.Equal(t, 3.0, s.TotalCommission)
	assert.Equal(t, 0.0, s.MinEquity)
	assert.Equal(t, 247.0, s.MaxEquity)
	assert.Equal(t, 0.0, s.FinalQuantity["BTC"])

	dd := (&Curve{Rows: []Row{
		{Equity: Flat(100)}, {Equity: Flat(150)}, {Equity: Flat(90)}, {Equity: Flat(120)},
	}}).Stats()
	assert.Equal(t, 60.0, dd.MaxDrawdown)
	assert.InDelta(t, 0.4, dd.MaxDrawdownPct, 1e-12)

	assert.Zero(t, (&Curve{}).Stats().Bars)
}
