package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/equity/config"
	"github.com/rustyeddy/equity/equity"
	"github.com/rustyeddy/equity/internal/id"
	"github.com/rustyeddy/equity/internal/metrics"
	"github.com/rustyeddy/equity/market"
	"github.com/rustyeddy/equity/tradelog"
)

// Runner drives one equity curve reconstruction:
//  1. normalise the trade log into events
//  2. take the bar size from config or infer it from the events
//  3. load and resample each instrument's price history
//  4. fold positions, cash and realized profit and merge the curves
type Runner struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Source  market.Source
}

// Result is everything a sink needs to record a run.
type Result struct {
	RunID    string
	Created  time.Time
	TradeLog string

	Bar         market.BarSize
	BarInferred bool
	Origin      time.Time
	Start       time.Time // open of bar zero of the test
	End         time.Time // one bar after the last event

	Events            tradelog.Events
	FictitiousDropped int
	LogStats          tradelog.Stats
	Gaps              map[string][]market.Gap

	Curve    *equity.Curve
	Stats    equity.Stats
	Duration time.Duration
}

// Run builds the curve. Nothing partial is returned on error.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.Config == nil {
		return nil, errors.New("backtest: Config is required")
	}
	if r.Source == nil {
		return nil, errors.New("backtest: Source is required")
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := r.Config
	began := time.Now()

	tl, err := tradelog.ReadFile(cfg.TradeLog, tradelog.Options{Encoding: cfg.Encoding})
	if err != nil {
		return nil, err
	}
	st := tl.Stats
	logger.Info("trade log normalised",
		zap.String("file", cfg.TradeLog),
		zap.Int("rows", st.Rows),
		zap.Int("entry", st.Entry),
		zap.Int("exit", st.Exit),
		zap.Int("combined", st.Combined),
		zap.Int("empty", st.Empty),
		zap.Int("forced_close_dropped", st.ForcedClose),
		zap.Int("open", st.Open),
	)
	r.Metrics.TradeLogRows(tradelog.ShapeEntry.String(), st.Entry)
	r.Metrics.TradeLogRows(tradelog.ShapeExit.String(), st.Exit)
	r.Metrics.TradeLogRows(tradelog.ShapeCombined.String(), st.Combined)
	r.Metrics.TradeLogRows(tradelog.ShapeEmpty.String(), st.Empty)

	events, dropped, err := tl.Events(cfg.RemoveFictitious)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		logger.Info("fictitious events removed",
			zap.Int("dropped", dropped),
			zap.Strings("signals", tl.FictitiousSignals()))
	}
	r.Metrics.FictitiousDropped(dropped)

	bar, configured, err := cfg.Bar()
	if err != nil {
		return nil, err
	}
	if !configured {
		if bar, err = events.InferBarSize(); err != nil {
			return nil, err
		}
		entry, exit, _ := events.ReferencePair()
		logger.Info("bar size inferred",
			zap.Stringer("bar", bar),
			zap.Time("entry", entry.Time), zap.Int("entry_bar", entry.Bar),
			zap.Time("exit", exit.Time), zap.Int("exit_bar", exit.Bar))
	}

	first, last, ok := events.Range()
	if !ok {
		return nil, fmt.Errorf("%s: %w", cfg.TradeLog, tradelog.ErrEmptyTradeLog)
	}
	origin, err := cfg.OriginTime()
	if err != nil {
		return nil, err
	}
	if origin.IsZero() {
		origin = first.Time
	}
	start := bar.Shift(first.Time, -first.Bar)
	end := bar.Shift(last, 1)

	res := &Result{
		TradeLog:          cfg.TradeLog,
		Bar:               bar,
		BarInferred:       !configured,
		Origin:            origin,
		Start:             start,
		End:               end,
		Events:            events,
		FictitiousDropped: dropped,
		LogStats:          st,
		Gaps:              make(map[string][]market.Gap),
	}

	sets := make(map[string]*market.CandleSet)
	for _, instr := range events.Instruments() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := len(events.ForInstrument(instr))
		r.Metrics.TradeEvents(instr, n)

		raw, err := r.Source.Load(ctx, instr, start, end)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", instr, err)
		}
		cs, err := raw.Resample(bar, origin)
		if err != nil {
			return nil, err
		}
		sets[instr] = cs
		r.Metrics.Candles(instr, raw.Len(), cs.Len(), raw.Duplicates())

		gaps := cs.Gaps()
		res.Gaps[instr] = gaps
		for _, g := range gaps {
			r.Metrics.Gap(instr, g.Kind, g.Len)
			if g.Kind != "weekend" {
				logger.Warn("price history gap",
					zap.String("instrument", instr),
					zap.Time("start", g.Start),
					zap.Int("bars", g.Len))
			}
		}
		logger.Info("price history loaded",
			zap.String("instrument", instr),
			zap.String("source", raw.Source),
			zap.Int("events", n),
			zap.Int("candles", raw.Len()),
			zap.Int("bars", cs.Len()),
			zap.Int("duplicates", raw.Duplicates()),
			zap.Int("gaps", len(gaps)),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	curve, err := equity.Build(events, sets, origin)
	if err != nil {
		return nil, err
	}
	res.Curve = curve
	res.Stats = curve.Stats()
	res.Created = time.Now().UTC()
	res.RunID = id.NewRun(res.Created)
	res.Duration = time.Since(began)

	r.Metrics.Curve(res.Stats.Bars, res.Stats.FinalEquity, res.Stats.FinalRealized, res.Stats.MaxDrawdown)
	r.Metrics.RunDuration(res.Duration)

	logger.Info("equity curve built",
		zap.String("run_id", res.RunID),
		zap.Int("bars", res.Stats.Bars),
		zap.Float64("final_equity", res.Stats.FinalEquity),
		zap.Float64("final_realized", res.Stats.FinalRealized),
		zap.Float64("max_drawdown", res.Stats.MaxDrawdown),
		zap.Duration("took", res.Duration),
	)
	return res, nil
}
