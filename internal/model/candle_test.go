package model

import (
	"strings"
	"testing"
	"time"
)

func TestWindowStart(t *testing.T) {
	window := time.Minute
	ts := time.Date(2026, 1, 1, 10, 0, 37, 0, time.UTC)
	got := WindowStart(ts, window)
	want := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("WindowStart() = %v, want %v", got, want)
	}
}

func TestWindowStartAlreadyAligned(t *testing.T) {
	window := 5 * time.Minute
	ts := time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC)
	got := WindowStart(ts, window)
	if !got.Equal(ts) {
		t.Fatalf("WindowStart() = %v, want %v", got, ts)
	}
}

func TestCandleBuilderFold(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	b := NewCandleBuilder("AAPL", "1m", time.Minute, start)
	if b.Started() {
		t.Fatalf("new builder should not be started")
	}

	vol1 := 10.0
	b.Fold(Tick{Symbol: "AAPL", Price: 100.0, Volume: &vol1})
	b.Fold(Tick{Symbol: "AAPL", Price: 105.0, Volume: &vol1})
	b.Fold(Tick{Symbol: "AAPL", Price: 95.0, Volume: &vol1})
	b.Fold(Tick{Symbol: "AAPL", Price: 102.0, Volume: &vol1})

	c := b.Candle()
	if c.Open != 100.0 {
		t.Errorf("Open = %v, want 100.0", c.Open)
	}
	if c.High != 105.0 {
		t.Errorf("High = %v, want 105.0", c.High)
	}
	if c.Low != 95.0 {
		t.Errorf("Low = %v, want 95.0", c.Low)
	}
	if c.Close != 102.0 {
		t.Errorf("Close = %v, want 102.0", c.Close)
	}
	if c.Volume != 40.0 {
		t.Errorf("Volume = %v, want 40.0", c.Volume)
	}
	if c.TickCount != 4 {
		t.Errorf("TickCount = %v, want 4", c.TickCount)
	}
	if c.Start != start || !c.End.Equal(start.Add(time.Minute)) {
		t.Errorf("Start/End not preserved: %v / %v", c.Start, c.End)
	}
}

func TestCandleJSONRoundTrip(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c := Candle{
		Symbol:    "AAPL",
		Timeframe: "1m",
		Start:     start,
		End:       start.Add(time.Minute),
		Open:      100,
		High:      105,
		Low:       95,
		Close:     102,
		Volume:    40,
		TickCount: 4,
	}
	encoded := c.JSON()
	decoded, err := DecodeCandle(encoded)
	if err != nil {
		t.Fatalf("DecodeCandle: %v", err)
	}
	// End is not part of the wire envelope; every other field round-trips.
	decoded.End = c.End
	if decoded != c {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, c)
	}
}

func TestCandleJSONUsesTimestampKeyNotStartOrEnd(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c := Candle{Symbol: "AAPL", Timeframe: "1m", Start: start, End: start.Add(time.Minute)}
	encoded := string(c.JSON())
	if !strings.Contains(encoded, `"timestamp"`) {
		t.Fatalf("expected a \"timestamp\" key in the wire payload, got %s", encoded)
	}
	if strings.Contains(encoded, `"start"`) || strings.Contains(encoded, `"end"`) {
		t.Fatalf("expected no \"start\"/\"end\" keys in the wire payload, got %s", encoded)
	}
}

func TestTickJSONRoundTrip(t *testing.T) {
	vol := 12.5
	ts := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	tk := Tick{Symbol: "AAPL", Timestamp: ts, Price: 101.5, Volume: &vol}
	encoded := tk.JSON()
	decoded, err := DecodeTick(encoded)
	if err != nil {
		t.Fatalf("DecodeTick: %v", err)
	}
	if decoded.Symbol != tk.Symbol || decoded.Price != tk.Price || !decoded.Timestamp.Equal(tk.Timestamp) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, tk)
	}
	if decoded.VolumeOrZero() != vol {
		t.Fatalf("Volume round trip: got %v, want %v", decoded.VolumeOrZero(), vol)
	}
}
