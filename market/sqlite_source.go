package market

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultTableTemplate matches the candle tables written by the exchange
// ingestion scripts, e.g. btc_usdt_1min.
const DefaultTableTemplate = "{symbol}_1min"

var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// SQLiteSource reads minute candles from the relational store populated by
// the ingestion scripts: one table per instrument with columns time_open,
// price_open, price_high, price_low, price_close and volume_traded.
type SQLiteSource struct {
	db    *sql.DB
	path  string
	table string
}

// OpenSQLiteSource opens the candle database. table is a template where
// {symbol} is replaced by the lower-cased instrument and {SYMBOL} by the
// instrument as written in the trade log.
func OpenSQLiteSource(path, table string) (*SQLiteSource, error) {
	if table == "" {
		table = DefaultTableTemplate
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteSource{db: db, path: path, table: table}, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) TableFor(instrument string) (string, error) {
	name := strings.ReplaceAll(s.table, "{symbol}", strings.ToLower(instrument))
	name = strings.ReplaceAll(name, "{SYMBOL}", instrument)
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "", fmt.Errorf("invalid candle table name %q", name)
		}
	}
	return name, nil
}

func (s *SQLiteSource) Load(ctx context.Context, instrument string, from, to time.Time) (*CandleSet, error) {
	table, err := s.TableFor(instrument)
	if err != nil {
		return nil, err
	}

	var found string
	err = s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&found)
	if err == sql.ErrNoRows {
		return nil, &MissingInstrumentError{Instrument: instrument, Location: s.path + ":" + table}
	}
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		SELECT time_open, price_open, price_high, price_low, price_close, volume_traded
		FROM "%s"
		WHERE time_open >= ? AND time_open < ?
		ORDER BY time_open ASC`, table)

	hi := "9999-12-31 23:59:59"
	if !to.IsZero() {
		hi = to.UTC().Format(time.DateTime)
	}
	rows, err := s.db.QueryContext(ctx, q, from.UTC().Format(time.DateTime), hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cs := &CandleSet{Instrument: instrument, Source: "sqlite", Filepath: s.path}
	row := 0
	for rows.Next() {
		row++
		var (
			ts string
			c  Candle
		)
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, &ParseError{File: s.path + ":" + table, Row: row, Column: "time_open", Err: err}
		}
		c.Time, err = parseSQLiteTime(ts)
		if err != nil {
			return nil, &ParseError{File: s.path + ":" + table, Row: row, Column: "time_open", Value: ts, Err: err}
		}
		if !c.Valid() {
			return nil, &ParseError{File: s.path + ":" + table, Row: row, Column: "price_high",
				Value: fmt.Sprintf("o=%g h=%g l=%g c=%g", c.Open, c.High, c.Low, c.Close),
				Err:   fmt.Errorf("ohlc out of range")}
		}
		if n := len(cs.Candles); n > 0 && c.Time.Equal(cs.Candles[n-1].Time) {
			cs.duplicates++
			continue
		}
		cs.Candles = append(cs.Candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cs, nil
}

func parseSQLiteTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range sqliteTimeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
