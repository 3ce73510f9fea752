// Package redisstore implements warmstart.Store against Redis Streams: a
// single bounded XRevRange query per (symbol, timeframe) stream, reversed
// to chronological order.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/go-redis/redis/v8"

	"github.com/corestream/engine/internal/model"
)

// Store reads candle history from Redis Streams, one stream per
// (symbol, timeframe) pair.
type Store struct {
	client *goredis.Client
}

// Config configures the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Open connects to Redis and verifies reachability with a ping.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redisstore: ping %q: %w", cfg.Addr, err)
	}
	return &Store{client: client}, nil
}

// streamKey names the Redis stream a symbol/timeframe's candles are
// appended to.
func streamKey(symbol, timeframe string) string {
	return "candles:" + symbol + ":" + timeframe
}

// LoadRecentCandles reads up to limit entries from the stream via
// XRevRange (newest first), then reverses to chronological order.
func (s *Store) LoadRecentCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.Candle, error) {
	key := streamKey(symbol, timeframe)
	entries, err := s.client.XRevRangeN(ctx, key, "+", "-", int64(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: xrevrange %q: %w", key, err)
	}

	candles := make([]model.Candle, 0, len(entries))
	for _, entry := range entries {
		c, err := candleFromEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("redisstore: decode entry %q: %w", entry.ID, err)
		}
		candles = append(candles, c)
	}

	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// candleFromEntry decodes a candle from a Redis stream entry. Candles are
// appended as a single "data" field holding the JSON-encoded candle.
func candleFromEntry(entry goredis.XMessage) (model.Candle, error) {
	raw, ok := entry.Values["data"]
	if !ok {
		return model.Candle{}, fmt.Errorf("missing %q field", "data")
	}
	s, ok := raw.(string)
	if !ok {
		return model.Candle{}, fmt.Errorf("field %q is not a string", "data")
	}
	var c model.Candle
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return model.Candle{}, err
	}
	return c, nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
