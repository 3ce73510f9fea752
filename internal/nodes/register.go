package nodes

import "github.com/corestream/engine/internal/dag"

// RegisterAll registers every node type this engine ships into reg.
func RegisterAll(reg *dag.Registry) {
	reg.Register("EMA", NewEMANode)
	reg.Register("SMA", NewSMANode)
	reg.Register("RSI", NewRSINode)
	reg.Register("SMACrossover", NewSMACrossoverNode)
	reg.Register("CandlePattern", NewCandlePatternNode)
}
