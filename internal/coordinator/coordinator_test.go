package coordinator

import (
	"testing"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/corestream/engine/internal/bus"
	"github.com/corestream/engine/internal/dag"
	"github.com/corestream/engine/internal/executor"
	"github.com/corestream/engine/internal/model"
)

type fakeBus struct {
	published []publishedMsg
}

type publishedMsg struct {
	subject string
	payload []byte
}

func (f *fakeBus) Publish(subject string, payload []byte) error {
	f.published = append(f.published, publishedMsg{subject: subject, payload: payload})
	return nil
}

func (f *fakeBus) QueueSubscribe(string, string, bus.Handler) (*nats.Subscription, error) {
	return nil, nil
}

type echoNode struct {
	id   string
	kind model.InputType
}

func (n *echoNode) ID() string     { return n.id }
func (n *echoNode) InitState() any { return nil }
func (n *echoNode) Compute(inputs model.NodeInputs, state any) (model.NodeOutputs, error) {
	return model.NodeOutputs{"value": 1.0}, nil
}

func buildTestCoordinator(t *testing.T, symbol string, defs []model.NodeDef) (*Coordinator, *fakeBus) {
	t.Helper()
	g, err := dag.Build(defs)
	if err != nil {
		t.Fatalf("dag.Build: %v", err)
	}
	nodes := make(map[string]model.Node, len(defs))
	for _, d := range defs {
		nodes[d.ID] = &echoNode{id: d.ID}
	}
	fb := &fakeBus{}
	c := &Coordinator{
		symbol:   symbol,
		bus:      fb,
		graph:    g,
		executor: executor.New(g, nodes, zap.NewNop()),
		log:      zap.NewNop(),
	}
	return c, fb
}

func TestHandleTickPublishesToIndicatorSubject(t *testing.T) {
	defs := []model.NodeDef{
		{ID: "ind_1", Type: "X", Inputs: []model.InputRef{{Type: model.InputTick}}, Outputs: []string{"value"}},
	}
	c, fb := buildTestCoordinator(t, "AAPL", defs)

	tick := model.Tick{Symbol: "AAPL"}
	c.handleTick("ticks.raw.AAPL", tick.JSON())

	if len(fb.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(fb.published))
	}
	if fb.published[0].subject != "indicators.AAPL.ind_1" {
		t.Fatalf("unexpected subject: %s", fb.published[0].subject)
	}
}

func TestHandleTickPublishesToStrategySubject(t *testing.T) {
	defs := []model.NodeDef{
		{ID: "strat_1", Type: "X", Inputs: []model.InputRef{{Type: model.InputTick}}, Outputs: []string{"signal"}, IsStrategy: true},
	}
	c, fb := buildTestCoordinator(t, "AAPL", defs)

	c.handleTick("ticks.raw.AAPL", (&model.Tick{Symbol: "AAPL"}).JSON())

	if len(fb.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(fb.published))
	}
	if fb.published[0].subject != "strategies.signals.AAPL.strat_1" {
		t.Fatalf("unexpected subject: %s", fb.published[0].subject)
	}
}

func TestHandleTickDropsMismatchedSymbol(t *testing.T) {
	defs := []model.NodeDef{
		{ID: "ind_1", Type: "X", Inputs: []model.InputRef{{Type: model.InputTick}}, Outputs: []string{"value"}},
	}
	c, fb := buildTestCoordinator(t, "AAPL", defs)

	c.handleTick("ticks.raw.AAPL", (&model.Tick{Symbol: "MSFT"}).JSON())

	if len(fb.published) != 0 {
		t.Fatalf("expected no publishes for mismatched symbol, got %d", len(fb.published))
	}
}

func TestHandleCandleRoutesByTimeframe(t *testing.T) {
	defs := []model.NodeDef{
		{ID: "ind_1m", Type: "X", Inputs: []model.InputRef{{Type: model.InputCandle, Timeframe: "1m"}}, Outputs: []string{"value"}},
	}
	c, fb := buildTestCoordinator(t, "AAPL", defs)

	c.handleCandle("candles.AAPL.1m", (&model.Candle{Symbol: "AAPL", Timeframe: "1m"}).JSON())

	if len(fb.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(fb.published))
	}
}

func TestNeedsTickAndNeedsCandles(t *testing.T) {
	defs := []model.NodeDef{
		{ID: "a", Type: "X", Inputs: []model.InputRef{{Type: model.InputCandle, Timeframe: "1m"}}, Outputs: []string{"value"}},
	}
	c, _ := buildTestCoordinator(t, "AAPL", defs)
	if c.needsTick() {
		t.Fatal("expected needsTick = false")
	}
	if !c.needsCandles() {
		t.Fatal("expected needsCandles = true")
	}
}
