// Package nodes provides the concrete Node implementations this engine
// ships: the candlepattern reference node plus EMA/SMA/RSI indicator nodes
// and an SMACrossover strategy node. Each node owns no state itself; the
// executor holds each node's state value and passes it into every Compute
// call.
package nodes

import (
	"fmt"

	"github.com/corestream/engine/internal/model"
)

// EMANode computes an Exponential Moving Average over one timeframe's
// closing prices, SMA-seeded and updated in O(1) per candle.
type EMANode struct {
	id        string
	timeframe string
	period    int
}

// emaState is the mutable rolling state InitState hands back to the
// executor and Compute receives on every call.
type emaState struct {
	multiplier float64
	current    float64
	count      int
	sum        float64
}

// NewEMANode constructs an EMA node from its NodeDef. Requires a "period"
// param and a single CANDLE input carrying the timeframe to subscribe to.
func NewEMANode(def model.NodeDef) (model.Node, error) {
	period, err := intParam(def.Params, "period")
	if err != nil {
		return nil, fmt.Errorf("EMA node %q: %w", def.ID, err)
	}
	tf, err := candleTimeframe(def)
	if err != nil {
		return nil, fmt.Errorf("EMA node %q: %w", def.ID, err)
	}
	return &EMANode{id: def.ID, timeframe: tf, period: period}, nil
}

func (n *EMANode) ID() string { return n.id }

func (n *EMANode) InitState() any {
	return &emaState{multiplier: 2.0 / float64(n.period+1)}
}

func (n *EMANode) Compute(inputs model.NodeInputs, state any) (model.NodeOutputs, error) {
	s := state.(*emaState)
	candle, ok := candleInput(inputs, n.timeframe)
	if !ok {
		return model.NodeOutputs{}, nil
	}

	price := candle.Close
	s.count++

	if s.count <= n.period {
		s.sum += price
		if s.count == n.period {
			s.current = s.sum / float64(n.period)
		}
	} else {
		s.current = (price * s.multiplier) + (s.current * (1 - s.multiplier))
	}

	if s.count < n.period {
		return model.NodeOutputs{}, nil
	}
	return envelope(candle, model.NodeOutputs{"value": s.current}), nil
}

// candleTimeframe extracts the single CANDLE input's timeframe from def,
// the only input shape indicator nodes accept.
func candleTimeframe(def model.NodeDef) (string, error) {
	for _, in := range def.Inputs {
		if in.Type == model.InputCandle {
			return in.Timeframe, nil
		}
	}
	return "", fmt.Errorf("no CANDLE input configured")
}

// candleInput extracts the candle_{timeframe} entry from a gathered input
// map, if present.
func candleInput(inputs model.NodeInputs, timeframe string) (model.Candle, bool) {
	raw, ok := inputs["candle_"+timeframe]
	if !ok {
		return model.Candle{}, false
	}
	c, ok := raw.(model.Candle)
	return c, ok
}

// envelope wraps a single-value indicator output in the symbol/timestamp/
// timeframe envelope every published indicator output carries, merging in
// the field-specific values.
func envelope(candle model.Candle, fields model.NodeOutputs) model.NodeOutputs {
	out := model.NodeOutputs{
		"symbol":    candle.Symbol,
		"timestamp": candle.End,
		"timeframe": candle.Timeframe,
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
