package backtest

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/equity/journal"
)

// Run converts the result to the journal's run record.
func (res *Result) JournalRun() journal.Run {
	run := journal.Run{
		RunID:             res.RunID,
		Created:           res.Created,
		TradeLog:          res.TradeLog,
		BarSize:           res.Bar.String(),
		Origin:            res.Origin,
		Start:             res.Start,
		End:               res.End,
		Instruments:       res.Curve.Instruments,
		Events:            len(res.Events),
		FictitiousDropped: res.FictitiousDropped,
		Notes:             res.Notes(),
	}
	run.SetStats(res.Stats)
	return run
}

// Notes are the observations worth keeping with a run.
func (res *Result) Notes() []string {
	var notes []string
	if res.BarInferred {
		notes = append(notes, fmt.Sprintf("bar size %s inferred from the trade log", res.Bar))
	}
	if res.FictitiousDropped > 0 {
		notes = append(notes, fmt.Sprintf("%d fictitious events removed", res.FictitiousDropped))
	}
	if res.LogStats.ForcedClose > 0 {
		notes = append(notes, fmt.Sprintf("%d forced-close rows dropped", res.LogStats.ForcedClose))
	}
	if res.LogStats.Open > 0 {
		notes = append(notes, fmt.Sprintf("%d positions open at the end of the test", res.LogStats.Open))
	}
	for _, instr := range res.Curve.Instruments {
		n, bars := 0, 0
		for _, g := range res.Gaps[instr] {
			if g.Kind != "weekend" {
				n++
				bars += g.Len
			}
		}
		if n > 0 {
			notes = append(notes, fmt.Sprintf("%s: %d price gaps, %d bars missing", instr, n, bars))
		}
	}
	return notes
}

// Journals opens a sink for every configured output path.
func (r *Runner) Journals() ([]journal.Journal, error) {
	out := r.Config.Output
	var js []journal.Journal
	if out.CSV != "" || out.PerInstrumentDir != "" {
		js = append(js, journal.NewCSV(out.CSV, out.PerInstrumentDir))
	}
	if out.XLSX != "" {
		js = append(js, journal.NewXLSX(out.XLSX))
	}
	if out.SQLite != "" {
		j, err := journal.NewSQLite(out.SQLite)
		if err != nil {
			closeAll(js)
			return nil, fmt.Errorf("open journal %s: %w", out.SQLite, err)
		}
		js = append(js, j)
	}
	return js, nil
}

// WriteOutputs records res in every configured sink, the org report and
// the metrics textfile.
func (r *Runner) WriteOutputs(res *Result) error {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	js, err := r.Journals()
	if err != nil {
		return err
	}
	run := res.JournalRun()
	var errs []error
	for _, j := range js {
		if err := j.Record(run, res.Curve, res.Events); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", j, err))
		}
	}
	if err := closeAll(js); err != nil {
		errs = append(errs, err)
	}

	if path := r.Config.Output.Org; path != "" {
		run.OrgPath = path
		if err := run.WriteOrg(); err != nil {
			errs = append(errs, fmt.Errorf("org report: %w", err))
		}
	}
	if path := r.Config.MetricsFile; path != "" && r.Metrics != nil {
		if err := r.Metrics.WriteTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Info("outputs written",
		zap.String("run_id", res.RunID),
		zap.Int("journals", len(js)),
		zap.String("csv", r.Config.Output.CSV),
		zap.String("xlsx", r.Config.Output.XLSX),
		zap.String("sqlite", r.Config.Output.SQLite),
		zap.String("org", r.Config.Output.Org),
	)
	return nil
}

func closeAll(js []journal.Journal) error {
	var errs []error
	for _, j := range js {
		if err := j.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
