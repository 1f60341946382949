package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/equity/config"
	"github.com/rustyeddy/equity/internal/logging"
)

// RootConfig holds the persistent flags shared by every command.
type RootConfig struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	LogFormat  string
}

// Load reads the env file, the config file and the environment, then
// applies the logging flags.
func (rc *RootConfig) Load(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnvFile(rc.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(rc.ConfigPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = rc.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = rc.LogFormat
	}
	return cfg, nil
}

// Logger builds the process logger from cfg.
func (rc *RootConfig) Logger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Format)
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:   "equity",
		Short: "Equity curves from TS-Lab trade logs",
		Long: `Equity reconstructs a portfolio equity curve from a TS-Lab trade log
and minute price history for every traded instrument.

The bar size of the strategy is inferred from the trade log unless it is
configured. Curves are written as CSV, XLSX, a SQLite journal and an
org-mode run report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.EnvFile, "env-file", "", "Path to .env file (default ./.env when present)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&rc.LogFormat, "log-format", "console", "Log format: console|json")

	cmd.AddCommand(
		newBuildCmd(rc),
		newInferCmd(rc),
		newTradesCmd(rc),
		newConfigCmd(rc),
		newJournalCmd(rc),
		newVersionCmd(),
	)
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
