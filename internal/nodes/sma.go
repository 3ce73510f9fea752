package nodes

import (
	"fmt"

	"github.com/corestream/engine/internal/model"
)

// SMANode computes a Simple Moving Average over a rolling window of closing
// prices using a preallocated circular buffer.
type SMANode struct {
	id        string
	timeframe string
	period    int
}

type smaState struct {
	buf     []float64
	idx     int
	count   int
	sum     float64
	current float64
}

// NewSMANode constructs an SMA node from its NodeDef.
func NewSMANode(def model.NodeDef) (model.Node, error) {
	period, err := intParam(def.Params, "period")
	if err != nil {
		return nil, fmt.Errorf("SMA node %q: %w", def.ID, err)
	}
	tf, err := candleTimeframe(def)
	if err != nil {
		return nil, fmt.Errorf("SMA node %q: %w", def.ID, err)
	}
	return &SMANode{id: def.ID, timeframe: tf, period: period}, nil
}

func (n *SMANode) ID() string { return n.id }

func (n *SMANode) InitState() any {
	return &smaState{buf: make([]float64, n.period)}
}

func (n *SMANode) Compute(inputs model.NodeInputs, state any) (model.NodeOutputs, error) {
	s := state.(*smaState)
	candle, ok := candleInput(inputs, n.timeframe)
	if !ok {
		return model.NodeOutputs{}, nil
	}

	price := candle.Close
	if s.count >= n.period {
		s.sum -= s.buf[s.idx]
	}
	s.buf[s.idx] = price
	s.sum += price
	s.idx = (s.idx + 1) % n.period
	s.count++

	if s.count < n.period {
		return model.NodeOutputs{}, nil
	}
	s.current = s.sum / float64(n.period)
	return envelope(candle, model.NodeOutputs{"value": s.current}), nil
}
