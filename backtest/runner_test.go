package backtest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rustyeddy/equity/config"
	"github.com/rustyeddy/equity/equity"
	"github.com/rustyeddy/equity/internal/metrics"
	"github.com/rustyeddy/equity/market"
	"github.com/rustyeddy/equity/tradelog"
)

var t0 = time.Date(2021, 1, 4, 9, 0, 0, 0, time.UTC)

func at(h int) time.Time { return t0.Add(time.Duration(h) * time.Hour) }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.TradeLog = filepath.Join("testdata", "trades.csv")
	cfg.History.Dir = filepath.Join("testdata", "history")
	cfg.Output = config.OutputConfig{}
	return cfg
}

func newRunner(t *testing.T, cfg *config.Config) *Runner {
	t.Helper()
	src, closeSrc, err := OpenSource(cfg.History)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeSrc() })
	return &Runner{Config: cfg, Logger: zap.NewNop(), Metrics: metrics.New(), Source: src}
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	r := newRunner(t, testConfig(t))
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, market.BarSize{Unit: market.Hours, N: 1}, res.Bar)
	assert.True(t, res.BarInferred)
	assert.Equal(t, at(1), res.Origin, "first entry")
	assert.Equal(t, at(0), res.Start, "bar zero")
	assert.Equal(t, at(4), res.End)
	assert.Equal(t, 1, res.LogStats.ForcedClose)
	assert.Len(t, res.Events, 3)
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.Gaps["BTC"])

	c := res.Curve
	require.Equal(t, 4, c.Len())
	assert.Equal(t, at(0), c.Rows[0].Time, "08:59 lies outside the window")

	var qty, cash, realized []float64
	for _, p := range c.Positions["BTC"] {
		qty = append(qty, p.Quantity)
		cash = append(cash, p.CashNet)
		realized = append(realized, p.RealizedProfit)
	}
	assert.Equal(t, []float64{0, 10, 15, 0}, qty)
	assert.Equal(t, []float64{0, -1001, -1552, 247}, cash)
	assert.Equal(t, []float64{0, -1, 98, 247}, realized)

	// 10:00 and 10:30 collapse into one hourly candle
	assert.Equal(t, equity.OHLC{Open: 1000, High: 1030, Low: 990, Close: 1020}, c.Rows[1].Value)
	assert.Equal(t, 247.0, res.Stats.FinalEquity)
	assert.Equal(t, 3.0, res.Stats.TotalCommission)

	families, err := r.Metrics.Registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["equity_final_equity"])
	assert.True(t, names["equity_candles_loaded_total"])
}

func TestRunnerBarOverride(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.BarSize = "2h"
	cfg.Origin = "2021-01-04 09:00:00"
	res, err := newRunner(t, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.BarInferred)
	assert.Equal(t, market.BarSize{Unit: market.Hours, N: 2}, res.Bar)
	assert.Equal(t, at(0), res.Origin)
	// the window is [08:00, 14:00): 08:59 opens the 07:00 bar, 13:00 its own
	assert.Equal(t, at(-1), res.Start)
	assert.Equal(t, at(5), res.End)
	require.Equal(t, 4, res.Curve.Len())
	assert.Equal(t, at(-2), res.Curve.Rows[0].Time)
	assert.Equal(t, at(2), res.Curve.Rows[2].Time)
	assert.Equal(t, at(4), res.Curve.Rows[3].Time)
	assert.Zero(t, res.Curve.Positions["BTC"][2].Quantity)
	assert.Equal(t, 247.0, res.Stats.FinalRealized)
}

func TestRunnerErrors(t *testing.T) {
	t.Parallel()

	_, err := (&Runner{}).Run(context.Background())
	assert.Error(t, err)

	cfg := testConfig(t)
	_, err = (&Runner{Config: cfg}).Run(context.Background())
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.History.Dir = t.TempDir()
	_, err = newRunner(t, cfg).Run(context.Background())
	var mi *market.MissingInstrumentError
	require.True(t, errors.As(err, &mi), "got %v", err)
	assert.Equal(t, "BTC", mi.Instrument)

	cfg = testConfig(t)
	cfg.TradeLog = filepath.Join(t.TempDir(), "missing.csv")
	_, err = newRunner(t, cfg).Run(context.Background())
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.TradeLog = filepath.Join(t.TempDir(), "header.csv")
	data, err := os.ReadFile(filepath.Join("testdata", "trades.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.TradeLog, []byte(strings.SplitN(string(data), "\n", 2)[0]+"\n"), 0644))
	_, err = newRunner(t, cfg).Run(context.Background())
	assert.True(t, errors.Is(err, tradelog.ErrEmptyTradeLog), "got %v", err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newRunner(t, testConfig(t)).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunnerKeepsFictitious(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.TradeLog = filepath.Join(dir, "trades.csv")
	cfg.RemoveFictitious = false
	writeFictitiousLog(t, cfg.TradeLog)

	res, err := newRunner(t, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.FictitiousDropped)
	assert.Len(t, res.Events, 2)
	assert.Equal(t, 199.0, res.Stats.FinalRealized)

	cfg.RemoveFictitious = true
	_, err = newRunner(t, cfg).Run(context.Background())
	assert.True(t, errors.Is(err, market.ErrDegenerateBarInference), "only the fictitious exit follows the entry: %v", err)
}

func TestOpenSource(t *testing.T) {
	t.Parallel()

	src, closeSrc, err := OpenSource(config.HistoryConfig{Source: "file", Dir: "testdata/history"})
	require.NoError(t, err)
	assert.IsType(t, market.FileSource{}, src)
	assert.NoError(t, closeSrc())

	_, _, err = OpenSource(config.HistoryConfig{Source: "s3"})
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	res, err := newRunner(t, testConfig(t)).Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSummary(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "EQUITY CURVE")
	assert.Contains(t, out, "1 hours (inferred)")
	assert.Contains(t, out, res.RunID)
	assert.Contains(t, out, "INSTRUMENTS")
	assert.Contains(t, out, "247.00")
	assert.Contains(t, out, "1 forced-close rows dropped")
}

func writeFictitiousLog(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "trades.csv"))
	require.NoError(t, err)
	header := strings.SplitN(string(data), "\n", 2)[0]
	cols := len(strings.Split(header, ";"))
	row := func(cells ...string) string {
		for len(cells) < cols {
			cells = append(cells, "")
		}
		return strings.Join(cells, ";")
	}
	text := strings.Join([]string{
		header,
		row("1", "Длинная", "BTC", "10", "10", "Рыночное", "LE1", "1", "04.01.2021", "10:00:00", "100", "1"),
		row("", "Длинная", "BTC", "10", "-10", "", "", "", "", "", "", "", "Фиктивное", "FX", "3", "04.01.2021", "12:00:00", "120", "0"),
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(text+"\n"), 0644))
}
