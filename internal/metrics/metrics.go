package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the counters of one run on a private registry so the
// result can be dumped as a node-exporter textfile.
type Metrics struct {
	Registry *prometheus.Registry

	tradeLogRows      *prometheus.CounterVec
	tradeEvents       *prometheus.CounterVec
	fictitiousDropped prometheus.Counter
	candlesRaw        *prometheus.CounterVec
	candlesResampled  *prometheus.CounterVec
	candleGaps        *prometheus.CounterVec
	duplicateCandles  *prometheus.CounterVec

	finalEquity   prometheus.Gauge
	finalRealized prometheus.Gauge
	maxDrawdown   prometheus.Gauge
	curveBars     prometheus.Gauge
	runDuration   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		tradeLogRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equity_tradelog_rows_total",
				Help: "Trade log rows by shape",
			},
			[]string{"shape"},
		),
		tradeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equity_trade_events_total",
				Help: "Trade events fed to the accumulator",
			},
			[]string{"instrument"},
		),
		fictitiousDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "equity_fictitious_events_dropped_total",
			Help: "Events removed because their signal is fictitious",
		}),
		candlesRaw: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equity_candles_loaded_total",
				Help: "Native price history candles loaded",
			},
			[]string{"instrument"},
		),
		candlesResampled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equity_candles_resampled_total",
				Help: "Candles after resampling to the trade log bar size",
			},
			[]string{"instrument"},
		),
		candleGaps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equity_candle_gap_bars_total",
				Help: "Missing bars between resampled candles, never filled",
			},
			[]string{"instrument", "kind"},
		),
		duplicateCandles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equity_candles_duplicate_total",
				Help: "Price history rows dropped for repeating an open time",
			},
			[]string{"instrument"},
		),
		finalEquity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "equity_final_equity",
			Help: "Equity close of the last bar",
		}),
		finalRealized: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "equity_final_realized_profit",
			Help: "Realized profit on the last bar",
		}),
		maxDrawdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "equity_max_drawdown",
			Help: "Largest peak to trough fall of equity close",
		}),
		curveBars: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "equity_curve_bars",
			Help: "Rows in the merged equity curve",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "equity_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
	}

	m.Registry.MustRegister(
		m.tradeLogRows, m.tradeEvents, m.fictitiousDropped,
		m.candlesRaw, m.candlesResampled, m.candleGaps, m.duplicateCandles,
		m.finalEquity, m.finalRealized, m.maxDrawdown, m.curveBars, m.runDuration,
	)
	return m
}

// A nil *Metrics is valid and records nothing.

func (m *Metrics) TradeLogRows(shape string, n int) {
	if m == nil {
		return
	}
	m.tradeLogRows.WithLabelValues(shape).Add(float64(n))
}

func (m *Metrics) TradeEvents(instrument string, n int) {
	if m == nil {
		return
	}
	m.tradeEvents.WithLabelValues(instrument).Add(float64(n))
}

func (m *Metrics) FictitiousDropped(n int) {
	if m == nil {
		return
	}
	m.fictitiousDropped.Add(float64(n))
}

func (m *Metrics) Candles(instrument string, raw, resampled, duplicates int) {
	if m == nil {
		return
	}
	m.candlesRaw.WithLabelValues(instrument).Add(float64(raw))
	m.candlesResampled.WithLabelValues(instrument).Add(float64(resampled))
	m.duplicateCandles.WithLabelValues(instrument).Add(float64(duplicates))
}

func (m *Metrics) Gap(instrument, kind string, bars int) {
	if m == nil {
		return
	}
	m.candleGaps.WithLabelValues(instrument, kind).Add(float64(bars))
}

func (m *Metrics) Curve(bars int, finalEquity, finalRealized, maxDrawdown float64) {
	if m == nil {
		return
	}
	m.curveBars.Set(float64(bars))
	m.finalEquity.Set(finalEquity)
	m.finalRealized.Set(finalRealized)
	m.maxDrawdown.Set(maxDrawdown)
}

func (m *Metrics) RunDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Set(d.Seconds())
}

// WriteTextfile writes every metric in the Prometheus text format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
