package market

import (
	"fmt"
	"time"
)

// CandleSet is an ascending, sparse series of candles for one instrument.
// Missing bars are simply absent; nothing is zero or forward filled.
type CandleSet struct {
	Instrument string
	Bar        BarSize   // zero for native (unresampled) history
	Origin     time.Time // bar edges line up with it; zero for native history
	Source     string
	Filepath   string
	Candles    []Candle

	duplicates int
}

// Gap is a run of consecutive bars with no candle.
type Gap struct {
	Start time.Time // open time of the first missing bar
	Len   int       // number of missing bars
	Kind  string    // weekend vs suspicious
}

func (cs *CandleSet) Len() int { return len(cs.Candles) }

// Duplicates is the number of rows dropped at load time because their open
// time was already present (the first one wins).
func (cs *CandleSet) Duplicates() int { return cs.duplicates }

func (cs *CandleSet) Start() time.Time {
	if len(cs.Candles) == 0 {
		return time.Time{}
	}
	return cs.Candles[0].Time
}

func (cs *CandleSet) End() time.Time {
	if len(cs.Candles) == 0 {
		return time.Time{}
	}
	return cs.Candles[len(cs.Candles)-1].Time
}

// Window returns a new set holding the candles in [start, end). A zero bound
// is open.
func (cs *CandleSet) Window(start, end time.Time) *CandleSet {
	out := cs.derive(cs.Bar)
	for _, c := range cs.Candles {
		if !start.IsZero() && c.Time.Before(start) {
			continue
		}
		if !end.IsZero() && !c.Time.Before(end) {
			break
		}
		out.Candles = append(out.Candles, c)
	}
	return out
}

// Bucket returns the open time of the bar that contains t, for bars of size
// bar whose edges line up with origin. Buckets are left-closed, right-open.
func Bucket(bar BarSize, origin, t time.Time) time.Time {
	if d, ok := bar.Fixed(); ok {
		return origin.Add(fixedIndex(d, origin, t) * d)
	}
	return monthEdge(origin, monthIndex(bar, origin, t)*bar.N)
}

// NextBucket returns the open time of the bar after the one containing t.
func NextBucket(bar BarSize, origin, t time.Time) time.Time {
	if d, ok := bar.Fixed(); ok {
		return origin.Add((fixedIndex(d, origin, t) + 1) * d)
	}
	return monthEdge(origin, (monthIndex(bar, origin, t)+1)*bar.N)
}

func fixedIndex(d time.Duration, origin, t time.Time) time.Duration {
	off := t.Sub(origin)
	k := off / d
	if off < 0 && off%d != 0 {
		k--
	}
	return k
}

// monthIndex finds k with monthEdge(origin, k*N) <= t < monthEdge(origin, (k+1)*N).
func monthIndex(bar BarSize, origin, t time.Time) int {
	months := (t.Year()-origin.Year())*12 + int(t.Month()-origin.Month())
	k := months / bar.N
	if months < 0 && months%bar.N != 0 {
		k--
	}
	for monthEdge(origin, k*bar.N).After(t) {
		k--
	}
	for !monthEdge(origin, (k+1)*bar.N).After(t) {
		k++
	}
	return k
}

// monthEdge moves t by n calendar months, clamping the day to the length of
// the target month: Jan 31 plus one month is Feb 28.
func monthEdge(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// Resample aggregates the set into bars of size bar anchored on origin:
// open is the first open, high the max, low the min, close the last close and
// volume the sum. Buckets without any source candle produce no output.
func (cs *CandleSet) Resample(bar BarSize, origin time.Time) (*CandleSet, error) {
	if err := bar.Validate(); err != nil {
		return nil, fmt.Errorf("resample %s: %w", cs.Instrument, err)
	}

	out := cs.derive(bar)
	out.Origin = origin
	var (
		cur    Candle
		curKey time.Time
		open   bool
	)

	for i, c := range cs.Candles {
		if i > 0 && !c.Time.After(cs.Candles[i-1].Time) {
			return nil, fmt.Errorf("resample %s: candle %d at %s is not after %s",
				cs.Instrument, i, c.Time, cs.Candles[i-1].Time)
		}

		key := Bucket(bar, origin, c.Time)
		if open && key.Equal(curKey) {
			if c.High > cur.High {
				cur.High = c.High
			}
			if c.Low < cur.Low {
				cur.Low = c.Low
			}
			cur.Close = c.Close
			cur.Volume += c.Volume
			continue
		}

		if open {
			out.Candles = append(out.Candles, cur)
		}
		cur = c
		cur.Time = key
		curKey = key
		open = true
	}
	if open {
		out.Candles = append(out.Candles, cur)
	}
	return out, nil
}

// Gaps lists the runs of missing bars between consecutive candles. It needs
// a resampled set; native history has no known bar size.
func (cs *CandleSet) Gaps() []Gap {
	if cs.Bar.IsZero() {
		return nil
	}

	var gaps []Gap
	for i := 1; i < len(cs.Candles); i++ {
		next := cs.next(cs.Candles[i-1].Time)
		n := 0
		for t := next; t.Before(cs.Candles[i].Time); t = cs.next(t) {
			n++
		}
		if n > 0 {
			gaps = append(gaps, Gap{Start: next, Len: n, Kind: cs.classifyGap(next, n)})
		}
	}
	return gaps
}

func (cs *CandleSet) next(t time.Time) time.Time {
	if cs.Origin.IsZero() {
		return cs.Bar.Shift(t, 1)
	}
	return NextBucket(cs.Bar, cs.Origin, t)
}

func (cs *CandleSet) classifyGap(start time.Time, length int) string {
	span := cs.Bar.Shift(start, length).Sub(start)

	// Weekend-ish if the gap covers a day and starts Fri/Sat/Sun
	if span >= 24*time.Hour {
		switch start.Weekday() {
		case time.Friday, time.Saturday, time.Sunday:
			return "weekend"
		}
	}
	return "suspicious"
}

func (cs *CandleSet) derive(bar BarSize) *CandleSet {
	return &CandleSet{
		Instrument: cs.Instrument,
		Bar:        bar,
		Origin:     cs.Origin,
		Source:     cs.Source,
		Filepath:   cs.Filepath,
	}
}
