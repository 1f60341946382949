package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/equity/market"
)

// EnvPrefix prefixes every environment override, e.g. EQUITY_TRADE_LOG.
const EnvPrefix = "EQUITY"

var originLayouts = []string{time.RFC3339, time.DateTime, time.DateOnly}

// Config represents a complete equity curve run
type Config struct {
	TradeLog         string        `json:"trade_log" yaml:"trade_log"`
	Encoding         string        `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	RemoveFictitious bool          `json:"remove_fictitious" yaml:"remove_fictitious"`
	BarSize          string        `json:"bar_size,omitempty" yaml:"bar_size,omitempty"` // overrides inference
	Origin           string        `json:"origin,omitempty" yaml:"origin,omitempty"`     // defaults to the first entry
	History          HistoryConfig `json:"history" yaml:"history"`
	Output           OutputConfig  `json:"output" yaml:"output"`
	Log              LogConfig     `json:"log" yaml:"log"`
	MetricsFile      string        `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}

// HistoryConfig says where minute price history is read from. Files default
// to the working directory.
type HistoryConfig struct {
	Source string `json:"source" yaml:"source"` // "file" or "sqlite"
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	Table  string `json:"table,omitempty" yaml:"table,omitempty"`
}

// OutputConfig lists the sinks; empty paths are skipped
type OutputConfig struct {
	CSV              string `json:"csv,omitempty" yaml:"csv,omitempty"`
	XLSX             string `json:"xlsx,omitempty" yaml:"xlsx,omitempty"`
	SQLite           string `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	Org              string `json:"org,omitempty" yaml:"org,omitempty"`
	PerInstrumentDir string `json:"per_instrument_dir,omitempty" yaml:"per_instrument_dir,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "console" or "json"
}

// LoadFromFile loads configuration from a file, YAML first then JSON.
// Keys missing from the file keep their default.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. An empty path tries ./.env and
// silently does nothing when it is absent.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Keys come from split_words: EQUITY_TRADE_LOG, EQUITY_HISTORY_DB, ...
// No envconfig tags, they add an unprefixed fallback lookup.
type envOverrides struct {
	TradeLog         string `split_words:"true"`
	Encoding         string `split_words:"true"`
	RemoveFictitious *bool  `split_words:"true"`
	BarSize          string `split_words:"true"`
	Origin           string `split_words:"true"`
	HistorySource    string `split_words:"true"`
	HistoryDir       string `split_words:"true"`
	HistoryDb        string `split_words:"true"`
	HistoryTable     string `split_words:"true"`
	OutputCsv        string `split_words:"true"`
	OutputXlsx       string `split_words:"true"`
	OutputSqlite     string `split_words:"true"`
	OutputOrg        string `split_words:"true"`
	OutputDir        string `split_words:"true"`
	LogLevel         string `split_words:"true"`
	LogFormat        string `split_words:"true"`
	MetricsFile      string `split_words:"true"`
}

// ApplyEnv overlays EQUITY_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.TradeLog, env.TradeLog)
	set(&c.Encoding, env.Encoding)
	set(&c.BarSize, env.BarSize)
	set(&c.Origin, env.Origin)
	// a database path selects the sqlite source, as --history-db does
	if env.HistoryDb != "" {
		c.History.DBPath = env.HistoryDb
		c.History.Source = "sqlite"
	}
	set(&c.History.Source, env.HistorySource)
	set(&c.History.Dir, env.HistoryDir)
	set(&c.History.Table, env.HistoryTable)
	set(&c.Output.CSV, env.OutputCsv)
	set(&c.Output.XLSX, env.OutputXlsx)
	set(&c.Output.SQLite, env.OutputSqlite)
	set(&c.Output.Org, env.OutputOrg)
	set(&c.Output.PerInstrumentDir, env.OutputDir)
	set(&c.Log.Level, env.LogLevel)
	set(&c.Log.Format, env.LogFormat)
	set(&c.MetricsFile, env.MetricsFile)
	if env.RemoveFictitious != nil {
		c.RemoveFictitious = *env.RemoveFictitious
	}
	return nil
}

// Load reads path (defaults when empty) and overlays the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bar returns the configured bar size; ok is false when it should be inferred.
func (c *Config) Bar() (bar market.BarSize, ok bool, err error) {
	if strings.TrimSpace(c.BarSize) == "" {
		return market.BarSize{}, false, nil
	}
	bar, err = market.ParseBarSize(c.BarSize)
	if err != nil {
		return market.BarSize{}, false, fmt.Errorf("bar_size: %w", err)
	}
	return bar, true, nil
}

// OriginTime returns the configured resampling origin, zero when unset.
func (c *Config) OriginTime() (time.Time, error) {
	s := strings.TrimSpace(c.Origin)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range originLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("origin: cannot parse %q", c.Origin)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error
	if c.TradeLog == "" {
		errs = append(errs, errors.New("trade_log is required"))
	}
	switch strings.ToLower(c.Encoding) {
	case "", "auto", "utf-8", "utf8", "utf-16", "utf16", "windows-1251", "cp1251":
	default:
		errs = append(errs, fmt.Errorf("encoding %q is not supported", c.Encoding))
	}
	if _, _, err := c.Bar(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.OriginTime(); err != nil {
		errs = append(errs, err)
	}

	switch c.History.Source {
	case "file":
	case "sqlite":
		if c.History.DBPath == "" {
			errs = append(errs, errors.New("history.db_path required for sqlite source"))
		}
	default:
		errs = append(errs, errors.New("history.source must be 'file' or 'sqlite'"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, errors.New("log.format must be 'console' or 'json'"))
	}
	return errors.Join(errs...)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		TradeLog:         "trades.csv",
		Encoding:         "auto",
		RemoveFictitious: true,
		History: HistoryConfig{
			Source: "file",
			Dir:    ".",
			Table:  market.DefaultTableTemplate,
		},
		Output: OutputConfig{
			CSV: "equity.csv",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
