package market

import (
	"errors"
	"fmt"
)

// ErrDegenerateBarInference is returned when no pair of trades with distinct
// bar indices exists to derive the strategy bar size from.
var ErrDegenerateBarInference = errors.New("degenerate bar inference")

// ParseError identifies a field that failed type coercion. Row is the 1-based
// data row (the header is row 0).
type ParseError struct {
	File   string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: row %d: column %q: cannot parse %q", e.File, e.Row, e.Column, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingInstrumentError is returned by a Source that has no price history
// for a symbol referenced by the trade log.
type MissingInstrumentError struct {
	Instrument string
	Location   string
}

func (e *MissingInstrumentError) Error() string {
	return fmt.Sprintf("no price history for %s in %s", e.Instrument, e.Location)
}
