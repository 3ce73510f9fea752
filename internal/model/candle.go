package model

import (
	"encoding/json"
	"time"
)

// Candle is a finished or in-progress OHLCV bar for a symbol/timeframe.
type Candle struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Start     time.Time `json:"timestamp"`
	End       time.Time `json:"-"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	TickCount int       `json:"tick_count"`
}

// JSON encodes the candle (ignoring errors, as with Tick.JSON).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// DecodeCandle parses a JSON candle payload.
func DecodeCandle(data []byte) (Candle, error) {
	var c Candle
	if err := json.Unmarshal(data, &c); err != nil {
		return Candle{}, err
	}
	return c, nil
}

// Key identifies the (symbol, timeframe) bucket this candle belongs to.
func (c *Candle) Key() string {
	return c.Symbol + "|" + c.Timeframe
}

// CandleBuilder accumulates ticks into an in-progress candle for one
// (symbol, timeframe) bucket. The zero value is not ready for use; construct
// via NewCandleBuilder. Not safe for concurrent use; callers serialize
// access (see internal/aggregator).
type CandleBuilder struct {
	Symbol    string
	Timeframe string
	Window    time.Duration
	Start     time.Time
	End       time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	TickCount int
	started   bool
}

// NewCandleBuilder creates an empty builder for the given window start.
func NewCandleBuilder(symbol, timeframe string, window time.Duration, start time.Time) *CandleBuilder {
	return &CandleBuilder{
		Symbol:    symbol,
		Timeframe: timeframe,
		Window:    window,
		Start:     start,
		End:       start.Add(window),
	}
}

// Fold applies a tick to the builder, updating OHLCV state.
func (b *CandleBuilder) Fold(t Tick) {
	if !b.started {
		b.Open = t.Price
		b.High = t.Price
		b.Low = t.Price
		b.started = true
	} else {
		if t.Price > b.High {
			b.High = t.Price
		}
		if t.Price < b.Low {
			b.Low = t.Price
		}
	}
	b.Close = t.Price
	b.Volume += t.VolumeOrZero()
	b.TickCount++
}

// Started reports whether any tick has been folded into this builder.
func (b *CandleBuilder) Started() bool {
	return b.started
}

// Candle materializes the builder's current state into a Candle value.
func (b *CandleBuilder) Candle() Candle {
	return Candle{
		Symbol:    b.Symbol,
		Timeframe: b.Timeframe,
		Start:     b.Start,
		End:       b.End,
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
		TickCount: b.TickCount,
	}
}

// WindowStart floors ts to the start of its window-aligned bucket:
// floor(epoch/window) * window.
func WindowStart(ts time.Time, window time.Duration) time.Time {
	epoch := ts.UnixNano()
	w := window.Nanoseconds()
	floored := (epoch / w) * w
	return time.Unix(0, floored).UTC()
}
