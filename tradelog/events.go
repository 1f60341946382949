package tradelog

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/equity/market"
)

type Kind int

const (
	Entry Kind = iota
	Exit
)

func (k Kind) String() string {
	if k == Exit {
		return "exit"
	}
	return "entry"
}

// TradeEvent is a single fill. Quantity is signed: positive buys, negative
// sells.
type TradeEvent struct {
	Instrument string
	Kind       Kind
	Time       time.Time
	Bar        int
	Quantity   float64
	Price      float64
	Commission float64
	Signal     string
	Position   int
	Line       int
}

// Events is a time ordered list of trade events.
type Events []TradeEvent

// Instruments lists the distinct instruments in order of first appearance.
func (ev Events) Instruments() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range ev {
		if !seen[e.Instrument] {
			seen[e.Instrument] = true
			out = append(out, e.Instrument)
		}
	}
	return out
}

func (ev Events) ForInstrument(instrument string) Events {
	var out Events
	for _, e := range ev {
		if e.Instrument == instrument {
			out = append(out, e)
		}
	}
	return out
}

func (ev Events) NetQuantity(instrument string) float64 {
	q := 0.0
	for _, e := range ev {
		if e.Instrument == instrument {
			q += e.Quantity
		}
	}
	return q
}

// FirstEntry is the earliest entry event.
func (ev Events) FirstEntry() (TradeEvent, bool) {
	var (
		first TradeEvent
		found bool
	)
	for _, e := range ev {
		if e.Kind != Entry {
			continue
		}
		if !found || e.Time.Before(first.Time) {
			first, found = e, true
		}
	}
	return first, found
}

// Range returns the earliest entry and the time of the last event.
func (ev Events) Range() (first TradeEvent, last time.Time, ok bool) {
	first, ok = ev.FirstEntry()
	if !ok {
		return TradeEvent{}, time.Time{}, false
	}
	for _, e := range ev {
		if e.Time.After(last) {
			last = e.Time
		}
	}
	return first, last, true
}

// ReferencePair picks the two events used to infer the bar size: the
// earliest entry, and the earliest exit that lies a positive number of bars
// and a positive amount of time after it.
func (ev Events) ReferencePair() (entry, exit TradeEvent, err error) {
	entry, ok := ev.FirstEntry()
	if !ok {
		return entry, exit, fmt.Errorf("no entry event: %w", market.ErrDegenerateBarInference)
	}

	exits := make(Events, 0, len(ev))
	for _, e := range ev {
		if e.Kind == Exit {
			exits = append(exits, e)
		}
	}
	sort.SliceStable(exits, func(i, j int) bool { return exits[i].Time.Before(exits[j].Time) })

	for _, e := range exits {
		if e.Bar > entry.Bar && e.Time.After(entry.Time) {
			return entry, e, nil
		}
	}
	return entry, exit, fmt.Errorf("no exit after bar %d at %s: %w",
		entry.Bar, entry.Time.Format(time.DateTime), market.ErrDegenerateBarInference)
}

// InferBarSize infers the bar size from the reference pair.
func (ev Events) InferBarSize() (market.BarSize, error) {
	entry, exit, err := ev.ReferencePair()
	if err != nil {
		return market.BarSize{}, err
	}
	return market.InferBarSize(entry.Time, exit.Time, exit.Bar-entry.Bar)
}
