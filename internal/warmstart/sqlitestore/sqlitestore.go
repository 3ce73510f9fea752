// Package sqlitestore implements warmstart.Store against a SQLite candle
// history table: a bounded, descending-then-reversed query returning the
// most recent N candles in chronological order.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/corestream/engine/internal/model"
)

// Store reads candle history from a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite connection for reading, tuned with WAL mode, normal
// synchronous durability, and a 5s busy timeout.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %q: %w", dbPath, err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

// LoadRecentCandles reads up to limit candles for symbol/timeframe, most
// recent first, then reverses to chronological order.
func (s *Store) LoadRecentCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, timeframe, start_ts, end_ts, open, high, low, close, volume, tick_count
		FROM candles
		WHERE symbol = ? AND timeframe = ?
		ORDER BY start_ts DESC
		LIMIT ?
	`, symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query candles: %w", err)
	}
	defer rows.Close()

	var candles []model.Candle
	for rows.Next() {
		var c model.Candle
		var startUnix, endUnix int64
		if err := rows.Scan(&c.Symbol, &c.Timeframe, &startUnix, &endUnix, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.TickCount); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan candle: %w", err)
		}
		c.Start = time.Unix(startUnix, 0).UTC()
		c.End = time.Unix(endUnix, 0).UTC()
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: iterate candles: %w", err)
	}

	// Descending query, reversed here to chronological order per the
	// warmstart.Store contract.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
