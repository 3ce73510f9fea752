package bus

import "strings"

// Topics builds the canonical NATS subjects this system publishes to and
// subscribes on.
type Topics struct{}

// sanitize replaces any character that is not alphanumeric, '-', or '_' with
// '_', so a symbol containing e.g. '.', '/', or spaces never introduces an
// extra NATS subject token or breaks subject syntax.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// TicksRaw returns the subject a symbol's raw ticks are published on.
func (Topics) TicksRaw(symbol string) string {
	return "ticks.raw." + sanitize(symbol)
}

// Candles returns the subject one symbol/timeframe's finished candles are
// published on.
func (Topics) Candles(symbol, timeframe string) string {
	return "candles." + sanitize(symbol) + "." + sanitize(timeframe)
}

// CandlesAll returns the wildcard subject matching every timeframe for one
// symbol.
func (Topics) CandlesAll(symbol string) string {
	return "candles." + sanitize(symbol) + ".*"
}

// AllCandles returns the wildcard subject matching every symbol and
// timeframe.
func (Topics) AllCandles() string {
	return "candles.>"
}

// AllTicks returns the wildcard subject matching every symbol's raw ticks.
func (Topics) AllTicks() string {
	return "ticks.raw.>"
}

// Indicators returns the subject one node's indicator output is published on.
func (Topics) Indicators(symbol, nodeID string) string {
	return "indicators." + sanitize(symbol) + "." + sanitize(nodeID)
}

// StrategySignals returns the subject one strategy node's signal output is
// published on.
func (Topics) StrategySignals(symbol, strategyID string) string {
	return "strategies.signals." + sanitize(symbol) + "." + sanitize(strategyID)
}

// CoordinatorTicksGroup returns the queue group name coordinators use when
// subscribing to a symbol's raw ticks, so only one coordinator replica per
// symbol processes each tick.
func (Topics) CoordinatorTicksGroup(symbol string) string {
	return "coordinator-" + sanitize(symbol) + "-ticks"
}

// CoordinatorCandlesGroup returns the queue group name coordinators use when
// subscribing to a symbol's candles.
func (Topics) CoordinatorCandlesGroup(symbol string) string {
	return "coordinator-" + sanitize(symbol) + "-candles"
}
