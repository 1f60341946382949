package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/equity/config"
	"github.com/rustyeddy/equity/journal"
	"github.com/rustyeddy/equity/tradelog"
)

// readEvents loads the trade log named by cfg.
func readEvents(cfg *config.Config) (*tradelog.Log, tradelog.Events, int, error) {
	tl, err := tradelog.ReadFile(cfg.TradeLog, tradelog.Options{Encoding: cfg.Encoding})
	if err != nil {
		return nil, nil, 0, err
	}
	events, dropped, err := tl.Events(cfg.RemoveFictitious)
	if err != nil {
		return nil, nil, 0, err
	}
	return tl, events, dropped, nil
}

func newInferCmd(rc *RootConfig) *cobra.Command {
	f := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Print the inferred bar size and date range of a trade log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.Load(cmd)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)

			_, events, _, err := readEvents(cfg)
			if err != nil {
				return err
			}
			bar, err := events.InferBarSize()
			if err != nil {
				return err
			}
			entry, exit, _ := events.ReferencePair()
			first, last, _ := events.Range()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Bar size:    %s\n", bar)
			fmt.Fprintf(w, "Reference:   bar %d %s -> bar %d %s\n",
				entry.Bar, entry.Time.Format(time.DateTime), exit.Bar, exit.Time.Format(time.DateTime))
			fmt.Fprintf(w, "Bar zero:    %s\n", bar.Shift(first.Time, -first.Bar).Format(time.DateTime))
			fmt.Fprintf(w, "Last event:  %s\n", last.Format(time.DateTime))
			fmt.Fprintf(w, "Instruments: %v\n", events.Instruments())
			return nil
		},
	}
	addTradeLogFlags(cmd, f)
	return cmd
}

func newTradesCmd(rc *RootConfig) *cobra.Command {
	var (
		f      = &buildFlags{}
		asCSV  bool
		symbol string
	)

	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Print the normalised trade events of a trade log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.Load(cmd)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)

			tl, events, dropped, err := readEvents(cfg)
			if err != nil {
				return err
			}
			if symbol != "" {
				events = events.ForInstrument(symbol)
			}

			w := cmd.OutOrStdout()
			if asCSV {
				return journal.WriteTrades(w, events)
			}
			printTrades(w, events)
			fmt.Fprintf(w, "%d events, %d fictitious dropped, %d forced-close rows dropped\n",
				len(events), dropped, tl.Stats.ForcedClose)
			if sig := tl.FictitiousSignals(); len(sig) > 0 {
				fmt.Fprintf(w, "fictitious signals: %v\n", sig)
			}
			return nil
		},
	}
	addTradeLogFlags(cmd, f)
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of a table")
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "Only this instrument")
	return cmd
}

func printTrades(w io.Writer, events tradelog.Events) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "Instrument", "Kind", "Bar", "Quantity", "Price", "Commission", "Signal", "Pos"})
	for _, e := range events {
		t.AppendRow(table.Row{
			e.Time.Format(time.DateTime), e.Instrument, e.Kind, e.Bar,
			e.Quantity, e.Price, e.Commission, e.Signal, e.Position,
		})
	}
	t.Render()
}
