package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/equity/equity"
	"github.com/rustyeddy/equity/tradelog"
)

var ErrRunNotFound = errors.New("run not found")

const runColumns = `run_id, created, trade_log, bar_size, origin, start_time, end_time, instruments,
	events, fictitious_dropped, bars, final_equity, final_realized, min_equity, max_equity,
	max_drawdown, max_drawdown_pct, total_commission`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r           Run
		instruments string
	)
	err := s.Scan(
		&r.RunID, &r.Created, &r.TradeLog, &r.BarSize, &r.Origin, &r.Start, &r.End, &instruments,
		&r.Events, &r.FictitiousDropped, &r.Bars, &r.FinalEquity, &r.FinalRealized, &r.MinEquity, &r.MaxEquity,
		&r.MaxDrawdown, &r.MaxDrawdownPct, &r.TotalCommission,
	)
	if err != nil {
		return Run{}, err
	}
	for _, t := range []*time.Time{&r.Created, &r.Origin, &r.Start, &r.End} {
		*t = t.UTC()
	}
	if instruments != "" {
		r.Instruments = strings.Split(instruments, ",")
	}
	return r, nil
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return r, err
}

// ListRuns returns every run, oldest first.
func (j *SQLite) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRow(s scanner, r *equity.Row, extra ...any) error {
	dest := append(extra, &r.Time,
		&r.CashNoCommission, &r.Commission, &r.CashNet,
		&r.Value.Open, &r.Value.High, &r.Value.Low, &r.Value.Close,
		&r.Equity.Open, &r.Equity.High, &r.Equity.Low, &r.Equity.Close,
		&r.RealizedProfit,
	)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	r.Time = r.Time.UTC()
	return nil
}

const rowColumns = `time, cash_no_commission, cumulative_commission, cash_net,
	value_open, value_high, value_low, value_close,
	equity_open, equity_high, equity_low, equity_close, realized_profit`

// ListEquity returns the aggregate curve of a run whose time is within
// [start, end). Zero bounds are open.
func (j *SQLite) ListEquity(ctx context.Context, runID string, start, end time.Time) ([]equity.Row, error) {
	lo, hi := bounds(start, end)
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+rowColumns+`
		FROM equity
		WHERE run_id = ? AND time >= ? AND time < ?
		ORDER BY time ASC`, runID, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []equity.Row
	for rows.Next() {
		var r equity.Row
		if err := scanRow(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListPositions returns one instrument's curve for a run.
func (j *SQLite) ListPositions(ctx context.Context, runID, instrument string) ([]equity.PositionRow, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT quantity, `+rowColumns+`
		FROM positions
		WHERE run_id = ? AND instrument = ?
		ORDER BY time ASC`, runID, instrument)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []equity.PositionRow
	for rows.Next() {
		var r equity.PositionRow
		if err := scanRow(rows, &r.Row, &r.Quantity); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListTrades returns the trade events of a run in recorded order.
func (j *SQLite) ListTrades(ctx context.Context, runID string) (tradelog.Events, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT instrument, kind, time, bar, quantity, price, commission, signal, position
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out tradelog.Events
	for rows.Next() {
		var (
			e    tradelog.TradeEvent
			kind string
		)
		if err := rows.Scan(&e.Instrument, &kind, &e.Time, &e.Bar, &e.Quantity, &e.Price,
			&e.Commission, &e.Signal, &e.Position); err != nil {
			return nil, err
		}
		if kind == tradelog.Exit.String() {
			e.Kind = tradelog.Exit
		}
		e.Time = e.Time.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func bounds(start, end time.Time) (time.Time, time.Time) {
	if start.IsZero() {
		start = time.Unix(0, 0).UTC()
	}
	if end.IsZero() {
		end = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return start.UTC(), end.UTC()
}
