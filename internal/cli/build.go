package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/equity/backtest"
	"github.com/rustyeddy/equity/config"
	"github.com/rustyeddy/equity/internal/metrics"
)

type buildFlags struct {
	tradeLog       string
	encoding       string
	keepFictitious bool
	bar            string
	origin         string
	historyDir     string
	historyDB      string
	historyTable   string
	csv            string
	xlsx           string
	sqlite         string
	org            string
	positionsDir   string
	metricsFile    string
	quiet          bool
}

// apply copies the flags the user set onto cfg.
func (f *buildFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	set := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	set("trade-log", &cfg.TradeLog, f.tradeLog)
	set("encoding", &cfg.Encoding, f.encoding)
	set("bar", &cfg.BarSize, f.bar)
	set("origin", &cfg.Origin, f.origin)
	set("history-dir", &cfg.History.Dir, f.historyDir)
	set("history-table", &cfg.History.Table, f.historyTable)
	set("csv", &cfg.Output.CSV, f.csv)
	set("xlsx", &cfg.Output.XLSX, f.xlsx)
	set("sqlite", &cfg.Output.SQLite, f.sqlite)
	set("org", &cfg.Output.Org, f.org)
	set("positions-dir", &cfg.Output.PerInstrumentDir, f.positionsDir)
	set("metrics-file", &cfg.MetricsFile, f.metricsFile)
	if changed("history-db") {
		cfg.History.Source = "sqlite"
		cfg.History.DBPath = f.historyDB
	}
	if changed("keep-fictitious") {
		cfg.RemoveFictitious = !f.keepFictitious
	}
}

func addTradeLogFlags(cmd *cobra.Command, f *buildFlags) {
	cmd.Flags().StringVarP(&f.tradeLog, "trade-log", "t", "", "TS-Lab trade log (CSV)")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "Trade log encoding: auto|utf-8|utf-16|windows-1251")
	cmd.Flags().BoolVar(&f.keepFictitious, "keep-fictitious", false, "Keep events of fictitious signals")
}

func newBuildCmd(rc *RootConfig) *cobra.Command {
	f := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the equity curve and write every configured output",
		Long: `Normalise the trade log, infer the bar size, resample the price history
of each instrument and write the equity curve.

Examples:
  equity build -t trades.csv --history-dir history --xlsx equity.xlsx
  equity build --config run.yaml --bar 4h --sqlite runs.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.Load(cmd)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, err := rc.Logger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			src, closeSrc, err := backtest.OpenSource(cfg.History)
			if err != nil {
				return err
			}
			defer closeSrc()

			runner := &backtest.Runner{
				Config:  cfg,
				Logger:  logger,
				Metrics: metrics.New(),
				Source:  src,
			}
			res, err := runner.Run(context.Background())
			if err != nil {
				logger.Error("build failed", zap.Error(err))
				return err
			}
			if err := runner.WriteOutputs(res); err != nil {
				return err
			}
			if !f.quiet {
				backtest.PrintSummary(cmd.OutOrStdout(), res)
			}
			return nil
		},
	}

	addTradeLogFlags(cmd, f)
	cmd.Flags().StringVar(&f.bar, "bar", "", "Bar size override, e.g. 4h, 15m, 1d (inferred when empty)")
	cmd.Flags().StringVar(&f.origin, "origin", "", "Resampling origin (default: first entry time)")
	cmd.Flags().StringVar(&f.historyDir, "history-dir", "", "Directory of <SYMBOL>.txt price history files")
	cmd.Flags().StringVar(&f.historyDB, "history-db", "", "SQLite price history database (selects the sqlite source)")
	cmd.Flags().StringVar(&f.historyTable, "history-table", "", "Table name template, {symbol} is replaced")
	cmd.Flags().StringVar(&f.csv, "csv", "", "Aggregate curve CSV output")
	cmd.Flags().StringVar(&f.xlsx, "xlsx", "", "XLSX workbook output")
	cmd.Flags().StringVar(&f.sqlite, "sqlite", "", "SQLite journal output")
	cmd.Flags().StringVar(&f.org, "org", "", "Org-mode run report output")
	cmd.Flags().StringVar(&f.positionsDir, "positions-dir", "", "Directory for per-instrument CSV curves")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Prometheus textfile output")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Do not print the summary")
	return cmd
}
