package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/equity/journal"
)

func newJournalCmd(rc *RootConfig) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query recorded runs",
		Long: `Query equity curve runs recorded in a SQLite journal.

Subcommands:
  runs  - List every recorded run
  show  - Print the org report of one run, or its curve with --curve

Examples:
  equity journal runs --db runs.db
  equity journal show 01HZX... --db runs.db`,
	}
	cmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to SQLite journal DB (default output.sqlite)")

	open := func(cmd *cobra.Command) (*journal.SQLite, error) {
		path := dbPath
		if path == "" {
			cfg, err := rc.Load(cmd)
			if err != nil {
				return nil, err
			}
			path = cfg.Output.SQLite
		}
		if path == "" {
			return nil, fmt.Errorf("no journal: pass --db or set output.sqlite")
		}
		j, err := journal.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(context.Background())
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Run ID", "Created", "Trade log", "Bar", "Instruments", "Bars", "Final equity", "Max DD"})
			for _, r := range runs {
				t.AppendRow(table.Row{
					r.RunID, r.Created.Format(time.DateTime), r.TradeLog, r.BarSize, len(r.Instruments), r.Bars,
					fmt.Sprintf("%.2f", r.FinalEquity), fmt.Sprintf("%.2f", r.MaxDrawdown),
				})
			}
			t.Render()
			return nil
		},
	}

	var curve bool
	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			ctx := context.Background()
			run, err := j.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			if !curve {
				return run.RenderOrg(cmd.OutOrStdout())
			}

			rows, err := j.ListEquity(ctx, run.RunID, time.Time{}, time.Time{})
			if err != nil {
				return fmt.Errorf("list equity: %w", err)
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Time", "Cash net", "Value", "Equity", "Realized"})
			for _, r := range rows {
				t.AppendRow(table.Row{
					r.Time.Format(time.DateTime),
					fmt.Sprintf("%.2f", r.CashNet),
					fmt.Sprintf("%.2f", r.Value.Close),
					fmt.Sprintf("%.2f", r.Equity.Close),
					fmt.Sprintf("%.2f", r.RealizedProfit),
				})
			}
			t.Render()
			return nil
		},
	}
	showCmd.Flags().BoolVar(&curve, "curve", false, "Print the aggregate curve instead of the report")

	cmd.AddCommand(runsCmd, showCmd)
	return cmd
}
