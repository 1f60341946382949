package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/equity/equity"
	"github.com/rustyeddy/equity/market"
	"github.com/rustyeddy/equity/tradelog"
)

var t0 = time.Date(2021, 1, 4, 9, 0, 0, 0, time.UTC)

func at(h int) time.Time { return t0.Add(time.Duration(h) * time.Hour) }

func testEvents() tradelog.Events {
	return tradelog.Events{
		{Instrument: "BTC/USD", Kind: tradelog.Entry, Time: at(1), Bar: 1, Quantity: 10, Price: 100, Commission: 1, Signal: "LE", Position: 1},
		{Instrument: "ETH", Kind: tradelog.Entry, Time: at(1), Bar: 1, Quantity: 2, Price: 50, Signal: "LE", Position: 2},
		{Instrument: "BTC/USD", Kind: tradelog.Exit, Time: at(3), Bar: 3, Quantity: -10, Price: 120, Commission: 1, Signal: "LX", Position: 1},
	}
}

func flat(h int, px float64) market.Candle {
	return market.Candle{Time: at(h), Open: px, High: px, Low: px, Close: px, Volume: 1}
}

// testCurve builds a two instrument curve over hours 0..3.
func testCurve(t *testing.T) (*equity.Curve, tradelog.Events) {
	t.Helper()
	hourly := market.BarSize{Unit: market.Hours, N: 1}
	sets := map[string]*market.CandleSet{
		"BTC/USD": {Instrument: "BTC/USD", Bar: hourly, Candles: []market.Candle{flat(0, 100), flat(1, 100), flat(2, 110), flat(3, 120)}},
		"ETH":     {Instrument: "ETH", Bar: hourly, Candles: []market.Candle{flat(1, 50), flat(2, 55)}},
	}
	events := testEvents()
	c, err := equity.Build(events, sets, t0)
	require.NoError(t, err)
	return c, events
}

func testRun(c *equity.Curve, events tradelog.Events) Run {
	r := Run{
		RunID:       "01HTESTRUN0000000000000000",
		Created:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		TradeLog:    "trades.csv",
		BarSize:     "1h",
		Origin:      t0,
		Start:       at(0),
		End:         at(4),
		Instruments: c.Instruments,
		Events:      len(events),
	}
	r.SetStats(c.Stats())
	return r
}
