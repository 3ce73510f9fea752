// Package executor runs a validated dag.Graph against a stream of tick and
// candle events for one symbol. Only the nodes impacted by an event (direct
// input match plus their transitive dependents) are recomputed, in
// topological order, with per-node errors isolated to an empty output
// rather than aborting the event.
package executor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/corestream/engine/internal/dag"
	"github.com/corestream/engine/internal/model"
)

// EventKind identifies what kind of event is being executed.
type EventKind string

const (
	TickEvent   EventKind = "tick"
	CandleEvent EventKind = "candle"
)

// Event is one tick or candle arriving for this executor's symbol.
type Event struct {
	Kind   EventKind
	Tick   model.Tick
	Candle model.Candle
}

// Executor owns per-node state and executes one symbol's DAG.
type Executor struct {
	graph *dag.Graph
	nodes map[string]model.Node
	log   *zap.Logger

	nodeStates map[string]any

	haveTick      bool
	latestTick    model.Tick
	latestCandles map[string]model.Candle // keyed by timeframe

	nodeOutputs map[string]model.NodeOutputs // cleared at the start of every event
}

// New constructs an Executor for graph, creating initial state for every
// node via Node.InitState.
func New(graph *dag.Graph, nodes map[string]model.Node, log *zap.Logger) *Executor {
	states := make(map[string]any, len(nodes))
	for id, n := range nodes {
		states[id] = n.InitState()
	}
	return &Executor{
		graph:         graph,
		nodes:         nodes,
		log:           log,
		nodeStates:    states,
		latestCandles: make(map[string]model.Candle),
		nodeOutputs:   make(map[string]model.NodeOutputs),
	}
}

// NodeOutput returns the output id produced during the most recent
// ExecuteEvent call, if it ran then. Outputs of earlier events are not kept.
func (e *Executor) NodeOutput(id string) (model.NodeOutputs, bool) {
	out, ok := e.nodeOutputs[id]
	return out, ok
}

// NodeAndState returns id's Node instance and its owned state, for callers
// that need to drive a node directly outside normal event execution (warm
// start replay).
func (e *Executor) NodeAndState(id string) (model.Node, any, bool) {
	n, ok := e.nodes[id]
	if !ok {
		return nil, nil, false
	}
	return n, e.nodeStates[id], true
}

// ExecuteEvent recomputes every node impacted by ev and returns a map of the
// outputs produced during this call only (nodes not impacted are absent,
// not zero-valued).
func (e *Executor) ExecuteEvent(ev Event) map[string]model.NodeOutputs {
	e.nodeOutputs = make(map[string]model.NodeOutputs)

	switch ev.Kind {
	case TickEvent:
		e.latestTick = ev.Tick
		e.haveTick = true
	case CandleEvent:
		e.latestCandles[ev.Candle.Timeframe] = ev.Candle
	}

	impacted := e.impactedNodes(ev)
	if len(impacted) == 0 {
		return map[string]model.NodeOutputs{}
	}

	for _, id := range e.graph.TopoOrder {
		if !impacted[id] {
			continue
		}
		e.executeNode(id, ev)
	}

	result := make(map[string]model.NodeOutputs, len(e.nodeOutputs))
	for id, out := range e.nodeOutputs {
		result[id] = out
	}
	return result
}

// impactedNodes returns the set of node ids that must recompute for ev:
// every node whose input directly matches ev's type/timeframe, plus every
// transitive dependent of those nodes (since their inputs changed too).
func (e *Executor) impactedNodes(ev Event) map[string]bool {
	impacted := make(map[string]bool)

	var direct []string
	for _, id := range e.graph.TopoOrder {
		def := e.graph.Defs[id]
		for _, in := range def.Inputs {
			if directlyMatches(in, ev) {
				direct = append(direct, id)
				impacted[id] = true
				break
			}
		}
	}

	for _, id := range direct {
		for _, dependent := range e.graph.GetAllTransitiveDependents(id) {
			impacted[dependent] = true
		}
	}

	return impacted
}

func directlyMatches(in model.InputRef, ev Event) bool {
	switch ev.Kind {
	case TickEvent:
		return in.Type == model.InputTick
	case CandleEvent:
		return in.Type == model.InputCandle && in.Timeframe == ev.Candle.Timeframe
	default:
		return false
	}
}

// executeNode gathers id's inputs, calls its Compute, and stores the
// result, substituting an empty NodeOutputs on error or panic so one node's
// failure never blocks its siblings or dependents.
func (e *Executor) executeNode(id string, ev Event) {
	node, ok := e.nodes[id]
	if !ok {
		e.log.Error("no node instance for impacted id", zap.String("node_id", id))
		e.nodeOutputs[id] = model.NodeOutputs{}
		return
	}

	inputs := e.gatherInputs(e.graph.Defs[id], ev)

	out, err := e.safeCompute(node, inputs, e.nodeStates[id])
	if err != nil {
		e.log.Error("node compute failed",
			zap.String("node_id", id),
			zap.Error(err))
		out = model.NodeOutputs{}
	}
	e.nodeOutputs[id] = out
}

// safeCompute invokes node.Compute, recovering from a panic and turning it
// into an error so executeNode's error handling applies uniformly.
func (e *Executor) safeCompute(node model.Node, inputs model.NodeInputs, state any) (out model.NodeOutputs, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("node %q panicked: %v", node.ID(), r)
		}
	}()
	return node.Compute(inputs, state)
}

// gatherInputs builds the NodeInputs map for def from current event state:
// "tick" for a TICK input, "candle_{timeframe}" for a CANDLE input, and the
// source node's id (optionally projected to a single field) for an
// INDICATOR input. A TICK input is included only when ev itself is a tick
// event; a CANDLE input is included only when ev itself is a candle event.
// A node reached only transitively (e.g. via an INDICATOR dependency) never
// gets a stale cached tick or candle fed in for an input kind the current
// event doesn't carry.
func (e *Executor) gatherInputs(def model.NodeDef, ev Event) model.NodeInputs {
	inputs := model.NodeInputs{}
	for _, in := range def.Inputs {
		switch in.Type {
		case model.InputTick:
			if ev.Kind == TickEvent && e.haveTick {
				inputs["tick"] = e.latestTick
			}
		case model.InputCandle:
			if ev.Kind != CandleEvent {
				continue
			}
			if c, ok := e.latestCandles[in.Timeframe]; ok {
				inputs["candle_"+in.Timeframe] = c
			}
		case model.InputIndicator:
			out, ok := e.nodeOutputs[in.Source]
			if !ok {
				continue
			}
			if in.Field != "" {
				inputs[in.Source] = out[in.Field]
			} else {
				inputs[in.Source] = out
			}
		}
	}
	return inputs
}
