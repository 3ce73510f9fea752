package nodes

import (
	"fmt"

	"github.com/corestream/engine/internal/model"
)

// SMACrossoverNode emits BUY on a golden cross (fast average crosses above
// slow) and SELL on a death cross (fast crosses below slow). It does not
// compute its own moving averages: it consumes two already-computed
// INDICATOR inputs (its two depends_on entries, fast then slow), since the moving
// averages are separate nodes this node wires to rather than owns.
type SMACrossoverNode struct {
	id         string
	fastSource string
	slowSource string
}

type smaCrossoverState struct {
	prevFast float64
	prevSlow float64
	ready    bool
}

// NewSMACrossoverNode constructs an SMACrossover node. Requires exactly two
// INDICATOR inputs: the first is treated as the fast average, the second as
// the slow average.
func NewSMACrossoverNode(def model.NodeDef) (model.Node, error) {
	var sources []string
	for _, in := range def.Inputs {
		if in.Type == model.InputIndicator {
			sources = append(sources, in.Source)
		}
	}
	if len(sources) != 2 {
		return nil, fmt.Errorf("SMACrossover node %q: requires exactly 2 INDICATOR inputs (fast, slow), got %d", def.ID, len(sources))
	}
	return &SMACrossoverNode{id: def.ID, fastSource: sources[0], slowSource: sources[1]}, nil
}

func (n *SMACrossoverNode) ID() string { return n.id }

func (n *SMACrossoverNode) InitState() any { return &smaCrossoverState{} }

func (n *SMACrossoverNode) Compute(inputs model.NodeInputs, state any) (model.NodeOutputs, error) {
	s := state.(*smaCrossoverState)

	fast, fastOK := indicatorValue(inputs, n.fastSource)
	slow, slowOK := indicatorValue(inputs, n.slowSource)
	if !fastOK || !slowOK {
		return model.NodeOutputs{}, nil
	}

	defer func() {
		s.prevFast = fast
		s.prevSlow = slow
		s.ready = true
	}()

	if !s.ready {
		return model.NodeOutputs{}, nil
	}

	crossedUp := s.prevFast <= s.prevSlow && fast > slow
	crossedDown := s.prevFast >= s.prevSlow && fast < slow

	switch {
	case crossedUp:
		return model.NodeOutputs{"signal": "BUY"}, nil
	case crossedDown:
		return model.NodeOutputs{"signal": "SELL"}, nil
	default:
		return model.NodeOutputs{}, nil
	}
}

// indicatorValue extracts the "value" field from an upstream indicator's
// output map, gathered by the executor under the source node's id.
func indicatorValue(inputs model.NodeInputs, source string) (float64, bool) {
	raw, ok := inputs[source]
	if !ok {
		return 0, false
	}
	out, ok := raw.(model.NodeOutputs)
	if !ok {
		return 0, false
	}
	v, ok := out["value"]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
