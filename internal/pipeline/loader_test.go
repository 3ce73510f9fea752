package pipeline

import (
	"errors"
	"testing"
)

func fakeLoader(files map[string]string) *Loader {
	var names []string
	for name := range files {
		names = append(names, name)
	}
	return &Loader{
		ConfigDir: "/config",
		Glob: func(pattern string) ([]string, error) {
			return names, nil
		},
		ReadFile: func(path string) ([]byte, error) {
			return []byte(files[path]), nil
		},
	}
}

func TestLoadPipelineDedupsIdenticalIndicators(t *testing.T) {
	l := fakeLoader(map[string]string{
		"/config/pipelines/AAPL/a.yaml": `
symbol: AAPL
indicators:
  - id: ema_20
    type: EMA
    timeframe: 1m
    params:
      period: 20
`,
		"/config/pipelines/AAPL/b.yaml": `
symbol: AAPL
indicators:
  - id: ema_20
    type: EMA
    timeframe: 1m
    params:
      period: 20
`,
	})

	defs, err := l.LoadPipeline("AAPL")
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected dedup to one node, got %d", len(defs))
	}
}

func TestLoadPipelineConflictingIndicators(t *testing.T) {
	l := fakeLoader(map[string]string{
		"/config/pipelines/AAPL/a.yaml": `
symbol: AAPL
indicators:
  - id: ema_20
    type: EMA
    timeframe: 1m
    params:
      period: 20
`,
		"/config/pipelines/AAPL/b.yaml": `
symbol: AAPL
indicators:
  - id: ema_20
    type: EMA
    timeframe: 1m
    params:
      period: 50
`,
	})

	_, err := l.LoadPipeline("AAPL")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Kind != "indicator" || conflict.ID != "ema_20" {
		t.Fatalf("unexpected conflict: %+v", conflict)
	}
}

func TestLoadPipelineDuplicateStrategyAlwaysConflicts(t *testing.T) {
	l := fakeLoader(map[string]string{
		"/config/pipelines/AAPL/a.yaml": `
symbol: AAPL
strategies:
  - id: cross_1
    type: SMACrossover
    depends_on: [sma_fast, sma_slow]
`,
		"/config/pipelines/AAPL/b.yaml": `
symbol: AAPL
strategies:
  - id: cross_1
    type: SMACrossover
    depends_on: [sma_fast, sma_slow]
`,
	})

	_, err := l.LoadPipeline("AAPL")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError for duplicate strategy id, got %v", err)
	}
	if conflict.Kind != "strategy" {
		t.Fatalf("expected strategy conflict, got %+v", conflict)
	}
}

func TestLoadPipelineConvertsGenericIndicatorInputs(t *testing.T) {
	l := fakeLoader(map[string]string{
		"/config/pipelines/AAPL/a.yaml": `
symbol: AAPL
indicators:
  - id: combo_1
    type: EMA
    inputs:
      - type: CANDLE
        timeframe: 1m
      - type: INDICATOR
        source: rsi_14
        field: value
`,
	})

	defs, err := l.LoadPipeline("AAPL")
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 node, got %d", len(defs))
	}
	def := defs[0]
	if len(def.Inputs) != 2 {
		t.Fatalf("expected the configured 2-input list to pass through verbatim, got %+v", def.Inputs)
	}
	if def.Inputs[0].Type != "CANDLE" || def.Inputs[0].Timeframe != "1m" {
		t.Fatalf("unexpected first input: %+v", def.Inputs[0])
	}
	if def.Inputs[1].Type != "INDICATOR" || def.Inputs[1].Source != "rsi_14" || def.Inputs[1].Field != "value" {
		t.Fatalf("unexpected second input: %+v", def.Inputs[1])
	}
}

func TestLoadPipelineConvertsStrategyInputs(t *testing.T) {
	l := fakeLoader(map[string]string{
		"/config/pipelines/AAPL/a.yaml": `
symbol: AAPL
strategies:
  - id: cross_1
    type: SMACrossover
    depends_on: [sma_fast, sma_slow]
`,
	})

	defs, err := l.LoadPipeline("AAPL")
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 node, got %d", len(defs))
	}
	def := defs[0]
	if !def.IsStrategy {
		t.Fatalf("expected IsStrategy=true")
	}
	if len(def.Inputs) != 2 || def.Inputs[0].Source != "sma_fast" || def.Inputs[1].Source != "sma_slow" {
		t.Fatalf("unexpected inputs: %+v", def.Inputs)
	}
	if len(def.Outputs) != 1 || def.Outputs[0] != "signal" {
		t.Fatalf("unexpected outputs: %+v", def.Outputs)
	}
}
