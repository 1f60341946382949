package tradelog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Values the analytics tool writes in the exit date of a position that was
// still open when the test ended.
var openSentinels = []string{"Открыта", "Open"}

// Execution types marking synthetic fills added by the tester.
var fictitiousMarkers = []string{"Фиктивное", "Fictitious", "Synthetic"}

var dateLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006.01.02 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"02.01.06 15:04:05",
}

// stripSpace drops every Unicode white space rune, which covers the no-break
// and narrow no-break spaces used as thousand separators.
func stripSpace(s string) string {
	if !strings.ContainsFunc(s, unicode.IsSpace) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// clean normalises a raw cell; "" means null.
func clean(s string) string {
	s = stripSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if strings.EqualFold(s, stripSpace(v)) {
			return true
		}
	}
	return false
}

func isOpenSentinel(s string) bool  { return s != "" && oneOf(s, openSentinels) }
func isFictitious(exec string) bool { return exec != "" && oneOf(exec, fictitiousMarkers) }

func parseNumber(s string) (float64, error) {
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}
	return strconv.ParseFloat(s, 64)
}

func parsePercent(s string) (float64, error) {
	v, err := parseNumber(strings.TrimSuffix(s, "%"))
	if err != nil {
		return 0, err
	}
	return v / 100, nil
}

func parseBar(s string) (int, error) {
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || v < 0 {
		return 0, fmt.Errorf("bar index %q is not a non-negative integer", s)
	}
	return int(v), nil
}

// parseDateTime joins a date and a time cell. Whitespace was stripped from
// both, so a single space is put back between them.
func parseDateTime(date, clock string) (time.Time, error) {
	s := date
	if clock != "" {
		s = date + " " + clock
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date/time %q", s)
}
