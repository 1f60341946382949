package market

import "time"

// Candle represents one OHLCV bar opened at Time.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Valid checks low <= min(open, close) <= max(open, close) <= high.
func (c Candle) Valid() bool {
	lo, hi := c.Open, c.Close
	if lo > hi {
		lo, hi = hi, lo
	}
	return c.Low <= lo && hi <= c.High
}
