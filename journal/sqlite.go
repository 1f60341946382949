package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/equity/equity"
	"github.com/rustyeddy/equity/tradelog"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// Record stores the run, its aggregate and per-instrument curves and its
// trade events in one transaction.
func (j *SQLite) Record(run Run, c *equity.Curve, events tradelog.Events) error {
	return j.RecordContext(context.Background(), run, c, events)
}

func (j *SQLite) RecordContext(ctx context.Context, run Run, c *equity.Curve, events tradelog.Events) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := recordRun(ctx, tx, run); err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}
	if err := recordEquity(ctx, tx, run.RunID, c); err != nil {
		return fmt.Errorf("record equity %s: %w", run.RunID, err)
	}
	if err := recordTrades(ctx, tx, run.RunID, events); err != nil {
		return fmt.Errorf("record trades %s: %w", run.RunID, err)
	}
	return tx.Commit()
}

func recordRun(ctx context.Context, tx *sql.Tx, r Run) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, trade_log, bar_size, origin, start_time, end_time, instruments,
		 events, fictitious_dropped, bars, final_equity, final_realized, min_equity, max_equity,
		 max_drawdown, max_drawdown_pct, total_commission)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.TradeLog, r.BarSize, r.Origin.UTC(), r.Start.UTC(), r.End.UTC(),
		strings.Join(r.Instruments, ","),
		r.Events, r.FictitiousDropped, r.Bars, r.FinalEquity, r.FinalRealized, r.MinEquity, r.MaxEquity,
		r.MaxDrawdown, r.MaxDrawdownPct, r.TotalCommission,
	)
	return err
}

func recordEquity(ctx context.Context, tx *sql.Tx, runID string, c *equity.Curve) error {
	eq, err := tx.PrepareContext(ctx, `
		INSERT INTO equity
		(run_id, time, cash_no_commission, cumulative_commission, cash_net,
		 value_open, value_high, value_low, value_close,
		 equity_open, equity_high, equity_low, equity_close, realized_profit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer eq.Close()

	for _, r := range c.Rows {
		if _, err := eq.ExecContext(ctx, append([]any{runID, r.Time.UTC()}, rowArgs(r)...)...); err != nil {
			return err
		}
	}

	pos, err := tx.PrepareContext(ctx, `
		INSERT INTO positions
		(run_id, instrument, time, quantity, cash_no_commission, cumulative_commission, cash_net,
		 value_open, value_high, value_low, value_close,
		 equity_open, equity_high, equity_low, equity_close, realized_profit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer pos.Close()

	for _, instr := range c.Instruments {
		for _, r := range c.Positions[instr] {
			args := append([]any{runID, instr, r.Time.UTC(), r.Quantity}, rowArgs(r.Row)...)
			if _, err := pos.ExecContext(ctx, args...); err != nil {
				return err
			}
		}
	}
	return nil
}

func recordTrades(ctx context.Context, tx *sql.Tx, runID string, events tradelog.Events) error {
	st, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
		(run_id, seq, instrument, kind, time, bar, quantity, price, commission, signal, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer st.Close()

	for i, e := range events {
		_, err := st.ExecContext(ctx, runID, i+1, e.Instrument, e.Kind.String(), e.Time.UTC(),
			e.Bar, e.Quantity, e.Price, e.Commission, e.Signal, e.Position)
		if err != nil {
			return err
		}
	}
	return nil
}

func rowArgs(r equity.Row) []any {
	return []any{
		r.CashNoCommission, r.Commission, r.CashNet,
		r.Value.Open, r.Value.High, r.Value.Low, r.Value.Close,
		r.Equity.Open, r.Equity.High, r.Equity.Low, r.Equity.Close,
		r.RealizedProfit,
	}
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
