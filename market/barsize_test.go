package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBarSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    BarSize
		wantErr bool
	}{
		{"4 hours", BarSize{Hours, 4}, false},
		{"1 months", BarSize{Months, 1}, false},
		{"15m", BarSize{Minutes, 15}, false},
		{"1M", BarSize{Months, 1}, false},
		{"4h", BarSize{Hours, 4}, false},
		{"1d", BarSize{Days, 1}, false},
		{"2w", BarSize{Weeks, 2}, false},
		{"30s", BarSize{Seconds, 30}, false},
		{"4HRS", BarSize{Hours, 4}, false},
		{"15MIN", BarSize{Minutes, 15}, false},
		{"1MTH", BarSize{Months, 1}, false},
		{"1WKS", BarSize{Weeks, 1}, false},
		{"", BarSize{}, true},
		{"hours", BarSize{}, true},
		{"0 hours", BarSize{}, true},
		{"3 fortnights", BarSize{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBarSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBarSizeStringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, b := range []BarSize{{Seconds, 5}, {Minutes, 1}, {Hours, 4}, {Days, 1}, {Weeks, 1}, {Months, 3}} {
		got, err := ParseBarSize(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
}

func TestBarSizeShift(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, t0.Add(8*time.Hour), BarSize{Hours, 4}.Shift(t0, 2))
	assert.Equal(t, t0.Add(-4*time.Hour), BarSize{Hours, 4}.Shift(t0, -1))
	assert.Equal(t, time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC), BarSize{Months, 3}.Shift(t0, 1))
	assert.Equal(t, time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC), BarSize{Weeks, 1}.Shift(t0, 2))

	eom := time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2021, 2, 28, 0, 0, 0, 0, time.UTC), BarSize{Months, 1}.Shift(eom, 1))
	assert.Equal(t, time.Date(2020, 11, 30, 0, 0, 0, 0, time.UTC), BarSize{Months, 1}.Shift(eom, -2))
}

func TestBarSizeValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, BarSize{Hours, 1}.Validate())
	assert.Error(t, BarSize{Hours, 0}.Validate())
	assert.Error(t, BarSize{Unit(42), 1}.Validate())
}
