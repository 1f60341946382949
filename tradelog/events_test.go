package tradelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/equity/market"
)

var day0 = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

func ev(kind Kind, instr string, hours, bar int, qty float64) TradeEvent {
	return TradeEvent{
		Instrument: instr,
		Kind:       kind,
		Time:       day0.Add(time.Duration(hours) * time.Hour),
		Bar:        bar,
		Quantity:   qty,
		Price:      10,
	}
}

func TestReferencePair(t *testing.T) {
	events := Events{
		ev(Entry, "A", 0, 5, 1),
		ev(Exit, "A", 0, 5, -1), // same bar, skipped
		ev(Entry, "B", 4, 6, 2),
		ev(Exit, "B", 8, 7, -2),
		ev(Exit, "A", 12, 8, 0),
	}

	entry, exit, err := events.ReferencePair()
	require.NoError(t, err)
	assert.Equal(t, 5, entry.Bar)
	assert.Equal(t, 7, exit.Bar)

	bar, err := events.InferBarSize()
	require.NoError(t, err)
	assert.Equal(t, market.BarSize{Unit: market.Hours, N: 4}, bar)
}

func TestReferencePairDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		events Events
	}{
		{"no entry", Events{ev(Exit, "A", 1, 1, -1)}},
		{"no later exit", Events{ev(Entry, "A", 0, 0, 1), ev(Exit, "A", 0, 0, -1)}},
		{"only entries", Events{ev(Entry, "A", 0, 0, 1), ev(Entry, "A", 1, 1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.events.ReferencePair()
			assert.ErrorIs(t, err, market.ErrDegenerateBarInference)
		})
	}
}

func TestEventsHelpers(t *testing.T) {
	events := Events{
		ev(Entry, "B", 1, 1, 3),
		ev(Entry, "A", 0, 0, 1),
		ev(Exit, "A", 5, 5, -1),
		ev(Exit, "B", 6, 6, -1),
	}

	assert.Equal(t, []string{"B", "A"}, events.Instruments())
	assert.Len(t, events.ForInstrument("A"), 2)
	assert.Equal(t, 2.0, events.NetQuantity("B"))

	first, last, ok := events.Range()
	require.True(t, ok)
	assert.Equal(t, "A", first.Instrument)
	assert.Equal(t, day0.Add(6*time.Hour), last)

	_, _, ok = Events{}.Range()
	assert.False(t, ok)
}

func TestShapeAndSide(t *testing.T) {
	assert.Equal(t, Long, parseSide("Длинная"))
	assert.Equal(t, Short, parseSide("short"))
	assert.Equal(t, SideUnknown, parseSide(""))
	assert.Equal(t, -1.0, Short.Sign())

	r := Row{}
	assert.Equal(t, ShapeEmpty, r.Shape())
	assert.Nil(t, r.Events())
	assert.Equal(t, "combined", ShapeCombined.String())
}
