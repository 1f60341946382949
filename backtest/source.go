package backtest

import (
	"fmt"

	"github.com/rustyeddy/equity/config"
	"github.com/rustyeddy/equity/market"
)

// OpenSource returns the configured price history source. The returned
// close func is never nil.
func OpenSource(h config.HistoryConfig) (market.Source, func() error, error) {
	switch h.Source {
	case "", "file":
		return market.FileSource{Dir: h.Dir}, func() error { return nil }, nil
	case "sqlite":
		src, err := market.OpenSQLiteSource(h.DBPath, h.Table)
		if err != nil {
			return nil, nil, fmt.Errorf("open history db %s: %w", h.DBPath, err)
		}
		return src, src.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown history source %q", h.Source)
}
