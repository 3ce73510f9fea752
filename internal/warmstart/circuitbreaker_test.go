package warmstart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corestream/engine/internal/model"
)

type failingStore struct {
	calls int
	err   error
}

func (f *failingStore) LoadRecentCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.Candle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []model.Candle{{Symbol: symbol, Timeframe: timeframe}}, nil
}

func (f *failingStore) Close() error { return nil }

func TestBreakingStoreOpensAfterMaxFailures(t *testing.T) {
	inner := &failingStore{err: errors.New("boom")}
	bs := NewBreakingStore(inner, 2, time.Minute)

	ctx := context.Background()
	if _, err := bs.LoadRecentCandles(ctx, "AAPL", "1m", 10); err == nil {
		t.Fatal("expected error from first failing call")
	}
	if _, err := bs.LoadRecentCandles(ctx, "AAPL", "1m", 10); err == nil {
		t.Fatal("expected error from second failing call")
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 calls into inner store, got %d", inner.calls)
	}

	// Breaker should now be open: third call rejected without reaching inner.
	if _, err := bs.LoadRecentCandles(ctx, "AAPL", "1m", 10); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected inner store not called while breaker open, got %d calls", inner.calls)
	}
}

func TestBreakingStoreClosesAfterSuccessfulProbe(t *testing.T) {
	inner := &failingStore{err: errors.New("boom")}
	bs := NewBreakingStore(inner, 1, 10*time.Millisecond)

	ctx := context.Background()
	if _, err := bs.LoadRecentCandles(ctx, "AAPL", "1m", 10); err == nil {
		t.Fatal("expected failure to trip breaker")
	}
	if _, err := bs.LoadRecentCandles(ctx, "AAPL", "1m", 10); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen immediately after trip, got %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	inner.err = nil

	candles, err := bs.LoadRecentCandles(ctx, "AAPL", "1m", 10)
	if err != nil {
		t.Fatalf("expected probe to succeed, got %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle from probe, got %d", len(candles))
	}

	// Breaker closed now: another failure should take 1 more hit to re-trip, not be rejected outright.
	inner.err = errors.New("boom again")
	if _, err := bs.LoadRecentCandles(ctx, "AAPL", "1m", 10); errors.Is(err, ErrCircuitOpen) {
		t.Fatal("expected breaker to be closed and call to reach inner store")
	}
}
