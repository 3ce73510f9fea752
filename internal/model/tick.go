package model

import (
	"encoding/json"
	"time"
)

// Tick is a single atomic price observation for a symbol.
// Immutable once constructed.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    *float64  `json:"volume,omitempty"`
	Bid       *float64  `json:"bid,omitempty"`
	Ask       *float64  `json:"ask,omitempty"`
}

// JSON returns the JSON-encoded tick (ignoring errors for hot-path usage).
func (t *Tick) JSON() []byte {
	b, _ := json.Marshal(t)
	return b
}

// DecodeTick parses a JSON tick payload.
func DecodeTick(data []byte) (Tick, error) {
	var t Tick
	if err := json.Unmarshal(data, &t); err != nil {
		return Tick{}, err
	}
	return t, nil
}

// VolumeOrZero returns the tick's volume, defaulting to 0 when absent.
func (t *Tick) VolumeOrZero() float64 {
	if t.Volume == nil {
		return 0
	}
	return *t.Volume
}
