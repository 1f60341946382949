package market

import (
	"context"
	"time"
)

// Source loads raw price history for one instrument restricted to [from, to).
type Source interface {
	Load(ctx context.Context, instrument string, from, to time.Time) (*CandleSet, error)
}
