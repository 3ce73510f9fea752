package nodes

import (
	"fmt"

	"github.com/corestream/engine/internal/model"
)

// RSINode computes the Relative Strength Index using Wilder's smoothing.
type RSINode struct {
	id        string
	timeframe string
	period    int
}

type rsiState struct {
	count     int
	prevClose float64
	avgGain   float64
	avgLoss   float64
	current   float64
}

// NewRSINode constructs an RSI node from its NodeDef. Period is typically 14.
func NewRSINode(def model.NodeDef) (model.Node, error) {
	period, err := intParam(def.Params, "period")
	if err != nil {
		return nil, fmt.Errorf("RSI node %q: %w", def.ID, err)
	}
	tf, err := candleTimeframe(def)
	if err != nil {
		return nil, fmt.Errorf("RSI node %q: %w", def.ID, err)
	}
	return &RSINode{id: def.ID, timeframe: tf, period: period}, nil
}

func (n *RSINode) ID() string { return n.id }

func (n *RSINode) InitState() any { return &rsiState{} }

func (n *RSINode) Compute(inputs model.NodeInputs, state any) (model.NodeOutputs, error) {
	r := state.(*rsiState)
	candle, ok := candleInput(inputs, n.timeframe)
	if !ok {
		return model.NodeOutputs{}, nil
	}

	price := candle.Close
	r.count++

	if r.count == 1 {
		r.prevClose = price
		return model.NodeOutputs{}, nil
	}

	delta := price - r.prevClose
	r.prevClose = price

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	p := float64(n.period)

	if r.count <= n.period+1 {
		r.avgGain += gain
		r.avgLoss += loss

		if r.count == n.period+1 {
			r.avgGain /= p
			r.avgLoss /= p
			r.current = rsiFromAverages(r.avgGain, r.avgLoss)
			return envelope(candle, model.NodeOutputs{"value": r.current}), nil
		}
		return model.NodeOutputs{}, nil
	}

	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	r.current = rsiFromAverages(r.avgGain, r.avgLoss)

	return envelope(candle, model.NodeOutputs{"value": r.current}), nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
