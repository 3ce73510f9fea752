// Package warmstart defines the persistent-storage contract node buffers
// use to seed themselves at startup: a bounded, time-descending query
// reversed to chronological order, queried once at startup. On failure the
// node cold-starts; SeedNode logs a warning and calls the caller's
// OnFailure callback (which the coordinator wires to a metric).
package warmstart

import (
	"context"

	"github.com/corestream/engine/internal/model"
)

// Store loads historical candles to seed a node's rolling buffer.
type Store interface {
	// LoadRecentCandles returns up to limit candles for symbol/timeframe,
	// most recent first internally but returned in chronological order
	// (oldest first), ready to fold into a buffer in arrival order.
	LoadRecentCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.Candle, error)

	Close() error
}
