// Package aggregator builds multi-timeframe OHLCV candles directly from a
// stream of ticks: a mutex-guarded builder map keyed by symbol and
// timeframe, a single consuming goroutine, and publish-outside-lock
// discipline so a slow downstream callback never holds up the next tick.
package aggregator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corestream/engine/internal/model"
)

// Timeframe names one configured aggregation window.
type Timeframe struct {
	Name   string
	Window time.Duration
}

// OnCandle is invoked for every finalized candle, outside any internal lock.
type OnCandle func(model.Candle)

// Aggregator accumulates ticks into one CandleBuilder per (symbol,
// timeframe) pair across every symbol it sees ticks for, finalizing a
// builder either when a tick arrives for a later window (boundary-crossing
// finalize) or on a periodic wall-clock sweep (for timeframes with no
// further ticks).
type Aggregator struct {
	mu         sync.Mutex
	builders   map[string]*model.CandleBuilder // key = symbol|timeframe
	timeframes []Timeframe
	sweep      time.Duration

	log *zap.Logger

	// OnDroppedCandle is invoked when the candle callback panics, after the
	// panic has been recovered. Unused by default; metrics wiring sets it.
	OnDroppedCandle func(symbol, timeframe string)
}

// New creates an Aggregator for the given set of timeframes. sweep controls
// how often the periodic finalize pass runs; spec.md recommends ~1s.
func New(timeframes []Timeframe, sweep time.Duration, log *zap.Logger) *Aggregator {
	return &Aggregator{
		builders:   make(map[string]*model.CandleBuilder),
		timeframes: timeframes,
		sweep:      sweep,
		log:        log,
	}
}

// Run consumes ticks from tickCh, folding each into every configured
// timeframe's builder, and calls onCandle for every candle finalized either
// by a boundary crossing or by the periodic sweep. Blocks until ctx is
// cancelled or tickCh is closed, flushing remaining builders best-effort on
// exit.
func (a *Aggregator) Run(ctx context.Context, tickCh <-chan model.Tick, onCandle OnCandle) {
	ticker := time.NewTicker(a.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.flushAll(onCandle)
			return

		case tick, ok := <-tickCh:
			if !ok {
				a.flushAll(onCandle)
				return
			}
			a.processTick(tick, onCandle)

		case <-ticker.C:
			a.sweepDue(onCandle)
		}
	}
}

// processTick folds tick into every configured timeframe's builder for its
// symbol, finalizing and publishing any builder whose window the tick has
// moved past.
func (a *Aggregator) processTick(tick model.Tick, onCandle OnCandle) {
	var finished []model.Candle

	a.mu.Lock()
	for _, tf := range a.timeframes {
		key := tick.Symbol + "|" + tf.Name
		start := model.WindowStart(tick.Timestamp, tf.Window)

		b, exists := a.builders[key]
		if exists && !start.Equal(b.Start) {
			finished = append(finished, b.Candle())
			delete(a.builders, key)
			exists = false
		}
		if !exists {
			b = model.NewCandleBuilder(tick.Symbol, tf.Name, tf.Window, start)
			a.builders[key] = b
		}
		b.Fold(tick)
	}
	a.mu.Unlock()

	for _, c := range finished {
		a.publish(c, onCandle)
	}
}

// sweepDue finalizes every builder whose window has fully elapsed by wall
// clock, so timeframes that stop receiving ticks (e.g. end of session, a
// quiet symbol) still emit their last candle close to its natural end time
// instead of waiting indefinitely for the next tick.
func (a *Aggregator) sweepDue(onCandle OnCandle) {
	now := time.Now().UTC()

	var finished []model.Candle
	a.mu.Lock()
	for key, b := range a.builders {
		if !b.Started() {
			continue
		}
		if now.Before(b.End) {
			continue
		}
		finished = append(finished, b.Candle())
		delete(a.builders, key)
	}
	a.mu.Unlock()

	for _, c := range finished {
		a.publish(c, onCandle)
	}
}

// flushAll finalizes and publishes every in-progress builder, regardless of
// window completion. Called on shutdown so the last partial candle is not
// silently lost.
func (a *Aggregator) flushAll(onCandle OnCandle) {
	var finished []model.Candle
	a.mu.Lock()
	for key, b := range a.builders {
		if b.Started() {
			finished = append(finished, b.Candle())
		}
		delete(a.builders, key)
	}
	a.mu.Unlock()

	for _, c := range finished {
		a.publish(c, onCandle)
	}
}

func (a *Aggregator) publish(c model.Candle, onCandle OnCandle) {
	defer func() {
		if r := recover(); r != nil {
			if a.log != nil {
				a.log.Error("candle callback panicked",
					zap.String("symbol", c.Symbol),
					zap.String("timeframe", c.Timeframe),
					zap.Any("panic", r))
			}
			if a.OnDroppedCandle != nil {
				a.OnDroppedCandle(c.Symbol, c.Timeframe)
			}
		}
	}()
	onCandle(c)
}
