// Package coordinator bridges one symbol's DAG (built from its pipeline
// config) to the message bus: subscribing to the tick/candle subjects the
// DAG actually needs, executing the DAG per event, and publishing each
// impacted node's output to the right outbound subject.
package coordinator

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/corestream/engine/internal/bus"
	"github.com/corestream/engine/internal/dag"
	"github.com/corestream/engine/internal/executor"
	"github.com/corestream/engine/internal/metrics"
	"github.com/corestream/engine/internal/model"
	"github.com/corestream/engine/internal/pipeline"
)

// busClient is the slice of *bus.Bus a Coordinator needs, narrowed to a
// port interface so tests can substitute a fake without a live NATS
// connection.
type busClient interface {
	Publish(subject string, payload []byte) error
	QueueSubscribe(subject, queue string, handler bus.Handler) (*nats.Subscription, error)
}

// Coordinator owns one symbol's DAG and keeps it fed from, and publishing
// to, the bus.
type Coordinator struct {
	symbol   string
	bus      busClient
	topics   bus.Topics
	graph    *dag.Graph
	executor *executor.Executor
	log      *zap.Logger
	metrics  *metrics.Metrics

	subs []*nats.Subscription
}

// New loads symbol's pipeline config, builds its DAG, constructs every node
// via registry, and returns a ready-to-Start Coordinator.
func New(symbol string, loader *pipeline.Loader, registry *dag.Registry, b *bus.Bus, m *metrics.Metrics, log *zap.Logger) (*Coordinator, error) {
	defs, err := loader.LoadPipeline(symbol)
	if err != nil {
		if m != nil {
			m.PipelineLoadErrors.WithLabelValues(symbol).Inc()
		}
		return nil, fmt.Errorf("coordinator %q: load pipeline: %w", symbol, err)
	}

	graph, err := dag.Build(defs)
	if err != nil {
		if m != nil {
			m.DAGBuildErrors.WithLabelValues(symbol).Inc()
		}
		return nil, fmt.Errorf("coordinator %q: build dag: %w", symbol, err)
	}

	nodes := make(map[string]model.Node, len(defs))
	for _, def := range defs {
		n, err := registry.Create(def)
		if err != nil {
			return nil, fmt.Errorf("coordinator %q: create node %q: %w", symbol, def.ID, err)
		}
		nodes[def.ID] = n
	}

	ex := executor.New(graph, nodes, log)

	return &Coordinator{
		symbol:   symbol,
		bus:      b,
		graph:    graph,
		executor: ex,
		log:      log.With(zap.String("symbol", symbol)),
		metrics:  m,
	}, nil
}

// needsTick reports whether any node in the graph has a TICK input.
func (c *Coordinator) needsTick() bool {
	for _, def := range c.graph.Defs {
		for _, in := range def.Inputs {
			if in.Type == model.InputTick {
				return true
			}
		}
	}
	return false
}

// needsCandles reports whether any node in the graph has a CANDLE input.
func (c *Coordinator) needsCandles() bool {
	for _, def := range c.graph.Defs {
		for _, in := range def.Inputs {
			if in.Type == model.InputCandle {
				return true
			}
		}
	}
	return false
}

// Start subscribes to exactly the subjects this symbol's DAG needs, each
// within a per-symbol queue group so only one coordinator replica for this
// symbol processes each message.
func (c *Coordinator) Start() error {
	if c.needsTick() {
		sub, err := c.bus.QueueSubscribe(c.topics.TicksRaw(c.symbol), c.topics.CoordinatorTicksGroup(c.symbol), c.handleTick)
		if err != nil {
			return fmt.Errorf("coordinator %q: subscribe ticks: %w", c.symbol, err)
		}
		c.subs = append(c.subs, sub)
	}

	if c.needsCandles() {
		sub, err := c.bus.QueueSubscribe(c.topics.CandlesAll(c.symbol), c.topics.CoordinatorCandlesGroup(c.symbol), c.handleCandle)
		if err != nil {
			return fmt.Errorf("coordinator %q: subscribe candles: %w", c.symbol, err)
		}
		c.subs = append(c.subs, sub)
	}

	return nil
}

// Stop unsubscribes every subscription this coordinator opened.
func (c *Coordinator) Stop() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			c.log.Warn("unsubscribe failed", zap.Error(err))
		}
	}
}

func (c *Coordinator) handleTick(_ string, payload []byte) {
	tick, err := model.DecodeTick(payload)
	if err != nil {
		c.log.Error("failed to decode tick", zap.Error(err))
		return
	}
	if tick.Symbol != c.symbol {
		c.log.Warn("dropping tick for mismatched symbol", zap.String("got", tick.Symbol))
		return
	}
	if c.metrics != nil {
		c.metrics.TicksTotal.WithLabelValues(c.symbol).Inc()
	}

	out := c.executor.ExecuteEvent(executor.Event{Kind: executor.TickEvent, Tick: tick})
	c.publishOutputs(out)
}

func (c *Coordinator) handleCandle(_ string, payload []byte) {
	candle, err := model.DecodeCandle(payload)
	if err != nil {
		c.log.Error("failed to decode candle", zap.Error(err))
		return
	}
	if candle.Symbol != c.symbol {
		c.log.Warn("dropping candle for mismatched symbol", zap.String("got", candle.Symbol))
		return
	}

	out := c.executor.ExecuteEvent(executor.Event{Kind: executor.CandleEvent, Candle: candle})
	c.publishOutputs(out)
}

// publishOutputs routes each computed node's output to its outbound
// subject: strategies.signals.{symbol}.{id} when the node's NodeDef marks
// it a strategy, indicators.{symbol}.{id} otherwise.
func (c *Coordinator) publishOutputs(outputs map[string]model.NodeOutputs) {
	for id, out := range outputs {
		if len(out) == 0 {
			continue
		}
		def := c.graph.Defs[id]

		payload, err := json.Marshal(out)
		if err != nil {
			c.log.Error("failed to marshal node output", zap.String("node_id", id), zap.Error(err))
			continue
		}

		subject := c.topics.Indicators(c.symbol, id)
		if def.IsStrategy {
			subject = c.topics.StrategySignals(c.symbol, id)
		}

		if err := c.bus.Publish(subject, payload); err != nil {
			c.log.Error("failed to publish node output", zap.String("subject", subject), zap.Error(err))
			if c.metrics != nil {
				c.metrics.BusPublishErrors.WithLabelValues(subject).Inc()
			}
		}
	}
}

// Graph exposes the built DAG, primarily for tests and diagnostics.
func (c *Coordinator) Graph() *dag.Graph { return c.graph }

// Executor exposes the underlying executor so a caller can seed node state
// (warm start) before Start begins delivering live events.
func (c *Coordinator) Executor() *executor.Executor { return c.executor }
