package warmstart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/corestream/engine/internal/model"
)

// breakerState is a circuit breaker state.
type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// ErrCircuitOpen is returned in place of a store call while the breaker is
// open, so a down warm-start backend doesn't add per-node query latency to
// every coordinator startup.
var ErrCircuitOpen = errors.New("warmstart: circuit open")

// circuitBreaker trips after maxFailures consecutive failures and rejects
// calls for resetTimeout before allowing a single half-open probe through.
type circuitBreaker struct {
	mu           sync.Mutex
	state        breakerState
	failures     int
	maxFailures  int
	resetTimeout time.Duration
	lastFailure  time.Time
}

func newCircuitBreaker(maxFailures int, resetTimeout time.Duration) *circuitBreaker {
	return &circuitBreaker{maxFailures: maxFailures, resetTimeout: resetTimeout}
}

func (cb *circuitBreaker) execute(fn func() error) error {
	cb.mu.Lock()
	switch cb.state {
	case stateOpen:
		if time.Since(cb.lastFailure) > cb.resetTimeout {
			cb.state = stateHalfOpen
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	case stateHalfOpen:
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.state == stateHalfOpen || cb.failures >= cb.maxFailures {
			cb.state = stateOpen
		}
		return err
	}

	cb.state = stateClosed
	cb.failures = 0
	return nil
}

// BreakingStore wraps a Store with a circuit breaker so a warm-start
// backend that has gone unreachable stops absorbing a per-node query
// timeout on every subsequent coordinator startup in the same process.
type BreakingStore struct {
	inner Store
	cb    *circuitBreaker
}

// NewBreakingStore wraps inner. After maxFailures consecutive failures it
// rejects calls immediately for resetTimeout before probing again.
func NewBreakingStore(inner Store, maxFailures int, resetTimeout time.Duration) *BreakingStore {
	return &BreakingStore{inner: inner, cb: newCircuitBreaker(maxFailures, resetTimeout)}
}

func (b *BreakingStore) LoadRecentCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.Candle, error) {
	var candles []model.Candle
	err := b.cb.execute(func() error {
		var err error
		candles, err = b.inner.LoadRecentCandles(ctx, symbol, timeframe, limit)
		return err
	})
	return candles, err
}

func (b *BreakingStore) Close() error { return b.inner.Close() }
