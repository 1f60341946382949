package market

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// InferBarSize derives the strategy timeframe from two trade timestamps that
// are bars apart in the strategy's own bar sequence.
//
// The classification is a deterministic heuristic: per-bar spans below a day
// collapse to whole hours, minutes or seconds (a 90 minute strategy reads as
// "1 hours"), spans of 28 days or more are calendar months only when both
// timestamps sit on the first day of a month, and everything else is days or
// weeks.
func InferBarSize(from, to time.Time, bars int) (BarSize, error) {
	if bars <= 0 {
		return BarSize{}, fmt.Errorf("%w: bar distance %d", ErrDegenerateBarInference, bars)
	}
	if !to.After(from) {
		return BarSize{}, fmt.Errorf("%w: %s is not after %s", ErrDegenerateBarInference, to, from)
	}

	per := to.Sub(from) / time.Duration(bars)
	days := int(per / day)

	switch {
	case days == 0:
		secs := int(per / time.Second)
		switch {
		case secs >= 3600:
			return BarSize{Unit: Hours, N: secs / 3600}, nil
		case secs >= 60:
			return BarSize{Unit: Minutes, N: secs / 60}, nil
		case secs >= 1:
			return BarSize{Unit: Seconds, N: secs}, nil
		}
		return BarSize{}, fmt.Errorf("%w: %s per bar", ErrDegenerateBarInference, per)

	case days >= 28:
		if from.Day() == 1 && to.Day() == 1 {
			months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
			if n := months / bars; n > 0 {
				return BarSize{Unit: Months, N: n}, nil
			}
		}
		return BarSize{Unit: Days, N: days}, nil

	case days%7 == 0:
		return BarSize{Unit: Weeks, N: days / 7}, nil
	}
	return BarSize{Unit: Days, N: days}, nil
}
