package bus

import "testing"

func TestTopicsSanitizesSymbol(t *testing.T) {
	var tp Topics
	got := tp.TicksRaw("BTC/USD perp")
	want := "ticks.raw.BTC_USD_perp"
	if got != want {
		t.Fatalf("TicksRaw() = %q, want %q", got, want)
	}
}

func TestTopicsSanitizesDottedSymbol(t *testing.T) {
	var tp Topics
	got := tp.Candles("BRK.A", "1m")
	want := "candles.BRK_A.1m"
	if got != want {
		t.Fatalf("Candles() = %q, want %q (dots must not survive sanitize, or they'd add an extra subject token)", got, want)
	}
}

func TestTopicsCandles(t *testing.T) {
	var tp Topics
	if got, want := tp.Candles("AAPL", "1m"), "candles.AAPL.1m"; got != want {
		t.Fatalf("Candles() = %q, want %q", got, want)
	}
	if got, want := tp.CandlesAll("AAPL"), "candles.AAPL.*"; got != want {
		t.Fatalf("CandlesAll() = %q, want %q", got, want)
	}
	if got, want := tp.AllCandles(), "candles.>"; got != want {
		t.Fatalf("AllCandles() = %q, want %q", got, want)
	}
}

func TestTopicsIndicatorsAndStrategies(t *testing.T) {
	var tp Topics
	if got, want := tp.Indicators("AAPL", "ema_20"), "indicators.AAPL.ema_20"; got != want {
		t.Fatalf("Indicators() = %q, want %q", got, want)
	}
	if got, want := tp.StrategySignals("AAPL", "sma_cross"), "strategies.signals.AAPL.sma_cross"; got != want {
		t.Fatalf("StrategySignals() = %q, want %q", got, want)
	}
}

func TestTopicsQueueGroups(t *testing.T) {
	var tp Topics
	if got, want := tp.CoordinatorTicksGroup("AAPL"), "coordinator-AAPL-ticks"; got != want {
		t.Fatalf("CoordinatorTicksGroup() = %q, want %q", got, want)
	}
	if got, want := tp.CoordinatorCandlesGroup("AAPL"), "coordinator-AAPL-candles"; got != want {
		t.Fatalf("CoordinatorCandlesGroup() = %q, want %q", got, want)
	}
}
