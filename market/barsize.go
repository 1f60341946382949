package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unit is the closed vocabulary of bar-size units.
type Unit int

const (
	Seconds Unit = iota + 1
	Minutes
	Hours
	Days
	Weeks
	Months
)

var unitNames = map[Unit]string{
	Seconds: "seconds",
	Minutes: "minutes",
	Hours:   "hours",
	Days:    "days",
	Weeks:   "weeks",
	Months:  "months",
}

func (u Unit) String() string {
	if s, ok := unitNames[u]; ok {
		return s
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// BarSize is a strategy timeframe such as "4 hours". Weeks and months are
// stepped on the calendar rather than as a fixed number of seconds.
type BarSize struct {
	Unit Unit
	N    int
}

func (b BarSize) String() string {
	return fmt.Sprintf("%d %s", b.N, b.Unit)
}

func (b BarSize) IsZero() bool { return b.N == 0 }

// Fixed reports the bar width for every unit except months.
func (b BarSize) Fixed() (time.Duration, bool) {
	n := time.Duration(b.N)
	switch b.Unit {
	case Seconds:
		return n * time.Second, true
	case Minutes:
		return n * time.Minute, true
	case Hours:
		return n * time.Hour, true
	case Days:
		return n * 24 * time.Hour, true
	case Weeks:
		return n * 7 * 24 * time.Hour, true
	}
	return 0, false
}

// Shift moves t by k bars. k may be negative. Month bars keep the day of
// month, clamped to the length of the target month.
func (b BarSize) Shift(t time.Time, k int) time.Time {
	if d, ok := b.Fixed(); ok {
		return t.Add(time.Duration(k) * d)
	}
	return monthEdge(t, k*b.N)
}

// Validate checks the bar size is usable for resampling.
func (b BarSize) Validate() error {
	if b.N <= 0 {
		return fmt.Errorf("bar size multiplier must be positive: %d", b.N)
	}
	if _, ok := unitNames[b.Unit]; !ok {
		return fmt.Errorf("unknown bar size unit %d", int(b.Unit))
	}
	return nil
}

var unitAliases = map[string]Unit{
	"s": Seconds, "sec": Seconds, "second": Seconds, "seconds": Seconds,
	"m": Minutes, "min": Minutes, "minute": Minutes, "minutes": Minutes,
	"h": Hours, "hrs": Hours, "hour": Hours, "hours": Hours,
	"d": Days, "day": Days, "days": Days,
	"w": Weeks, "wks": Weeks, "week": Weeks, "weeks": Weeks,
	"mo": Months, "mth": Months, "month": Months, "months": Months,
}

// ParseBarSize accepts "4 hours", "4h", "15m", "1M" (months) and period ids
// like "4HRS" or "1MTH".
func ParseBarSize(s string) (BarSize, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return BarSize{}, fmt.Errorf("empty bar size")
	}

	i := 0
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}
	if i == 0 {
		return BarSize{}, fmt.Errorf("bar size %q: missing multiplier", s)
	}
	n, err := strconv.Atoi(raw[:i])
	if err != nil {
		return BarSize{}, fmt.Errorf("bar size %q: %w", s, err)
	}

	if n <= 0 {
		return BarSize{}, fmt.Errorf("bar size %q: multiplier must be positive", s)
	}

	// "M" alone is months, "m" is minutes
	suffix := strings.TrimSpace(raw[i:])
	if suffix == "M" {
		return BarSize{Unit: Months, N: n}, nil
	}
	u, ok := unitAliases[strings.ToLower(suffix)]
	if !ok {
		return BarSize{}, fmt.Errorf("bar size %q: unknown unit %q", s, suffix)
	}
	return BarSize{Unit: u, N: n}, nil
}
