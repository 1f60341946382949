package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const historyLayout = "20060102150405"

// History file columns:
//
//	<TICKER>,<PER>,<DATE>,<TIME>,<OPEN>,<LOW>,<HIGH>,<CLOSE>,<VOL>
//
// DATE is YYYYMMDD and TIME is HHMMSS, left padded to six digits.
var historyColumns = []string{"ticker", "per", "date", "time", "open", "low", "high", "close", "vol"}

const (
	colDate = 2
	colTime = 3
)

var errNotAscending = errors.New("open time is before the previous row")

// LoadHistoryFile reads one instrument's price history text file.
func LoadHistoryFile(path, instrument string) (*CandleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cs, err := ReadHistory(f, path, instrument)
	if err != nil {
		return nil, err
	}
	cs.Filepath = path
	return cs, nil
}

// ReadHistory parses price history rows from r. name is only used in errors.
// Rows repeating an open time are dropped (keep first); rows going back in
// time or breaking the OHLC invariant fail the load.
func ReadHistory(r io.Reader, name, instrument string) (*CandleSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	cs := &CandleSet{Instrument: instrument, Source: "file"}
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if row == 0 && isHistoryHeader(rec) {
			continue
		}
		row++

		if len(rec) < len(historyColumns) {
			return nil, &ParseError{File: name, Row: row, Column: historyColumns[len(rec)],
				Err: fmt.Errorf("want %d columns, got %d", len(historyColumns), len(rec))}
		}

		c, err := parseHistoryRow(rec, name, row)
		if err != nil {
			return nil, err
		}

		if n := len(cs.Candles); n > 0 {
			prev := cs.Candles[n-1].Time
			if c.Time.Equal(prev) {
				cs.duplicates++
				continue
			}
			if c.Time.Before(prev) {
				return nil, &ParseError{File: name, Row: row, Column: "time",
					Value: c.Time.Format(time.DateTime), Err: errNotAscending}
			}
		}
		cs.Candles = append(cs.Candles, c)
	}
	return cs, nil
}

func isHistoryHeader(rec []string) bool {
	first := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff")))
	return strings.HasPrefix(first, "<") || first == "ticker"
}

func parseHistoryRow(rec []string, name string, row int) (Candle, error) {
	date := strings.TrimSpace(rec[colDate])
	clock := strings.TrimSpace(rec[colTime])
	if len(clock) < 6 {
		clock = strings.Repeat("0", 6-len(clock)) + clock
	}
	t, err := time.ParseInLocation(historyLayout, date+clock, time.UTC)
	if err != nil {
		return Candle{}, &ParseError{File: name, Row: row, Column: "date", Value: rec[colDate] + " " + rec[colTime], Err: err}
	}

	var v [5]float64
	for i := range v {
		col := 4 + i
		s := strings.TrimSpace(rec[col])
		v[i], err = strconv.ParseFloat(s, 64)
		if err != nil {
			return Candle{}, &ParseError{File: name, Row: row, Column: historyColumns[col], Value: s, Err: err}
		}
	}

	c := Candle{Time: t, Open: v[0], Low: v[1], High: v[2], Close: v[3], Volume: v[4]}
	if !c.Valid() {
		return Candle{}, &ParseError{File: name, Row: row, Column: "high",
			Value: fmt.Sprintf("o=%g h=%g l=%g c=%g", c.Open, c.High, c.Low, c.Close),
			Err:   errors.New("ohlc out of range")}
	}
	return c, nil
}

// FileSource finds one history file per instrument in Dir, named exactly as
// the instrument symbol (a .txt or .csv extension is also accepted).
type FileSource struct {
	Dir string
}

func (s FileSource) Locate(instrument string) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	for _, name := range []string{instrument, instrument + ".txt", instrument + ".csv"} {
		path := filepath.Join(dir, name)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path, nil
		}
	}
	return "", &MissingInstrumentError{Instrument: instrument, Location: dir}
}

func (s FileSource) Load(ctx context.Context, instrument string, from, to time.Time) (*CandleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Locate(instrument)
	if err != nil {
		return nil, err
	}
	cs, err := LoadHistoryFile(path, instrument)
	if err != nil {
		return nil, err
	}
	w := cs.Window(from, to)
	w.duplicates = cs.duplicates
	return w, nil
}
