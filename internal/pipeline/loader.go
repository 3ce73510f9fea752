// Package pipeline loads and merges the declarative per-symbol pipeline
// configuration (indicators + strategies) that the DAG builder turns into a
// graph of nodes, using yaml.v3 for parsing and reflect.DeepEqual for
// structural dedup of identically-defined indicators.
package pipeline

import (
	"fmt"
	"path/filepath"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/corestream/engine/internal/model"
)

// Loader reads pipeline YAML files from configDir/pipelines/{symbol}/*.yaml.
type Loader struct {
	ConfigDir string

	// Glob and ReadFile are overridable for testing; NewLoader wires them to
	// filepath.Glob and os.ReadFile.
	Glob     func(pattern string) ([]string, error)
	ReadFile func(path string) ([]byte, error)
}

// LoadPipeline loads, merges, and converts every pipeline YAML file for
// symbol into a flat list of NodeDef, in a deterministic order (indicators
// before strategies, each in the order its id is first seen, with files
// read in sorted path order).
func (l *Loader) LoadPipeline(symbol string) ([]model.NodeDef, error) {
	pattern := filepath.Join(l.ConfigDir, "pipelines", symbol, "*.yaml")
	files, err := l.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("pipeline: glob %q: %w", pattern, err)
	}
	sort.Strings(files)

	var configs []fileConfig
	for _, f := range files {
		data, err := l.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("pipeline: read %q: %w", f, err)
		}
		var cfg model.PipelineConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("pipeline: parse %q: %w", f, err)
		}
		if cfg.Symbol != "" && cfg.Symbol != symbol {
			// Symbol mismatch is a warning-worthy oddity, not fatal: the
			// directory placement is authoritative.
			_ = cfg.Symbol
		}
		configs = append(configs, fileConfig{path: f, cfg: cfg})
	}

	merged, err := mergeConfigs(configs)
	if err != nil {
		return nil, err
	}
	return toNodeDefs(merged), nil
}

type fileConfig struct {
	path string
	cfg  model.PipelineConfig
}

type mergedConfig struct {
	indicators map[string]indicatorEntry
	indOrder   []string
	strategies map[string]strategyEntry
	strOrder   []string
}

type indicatorEntry struct {
	cfg  model.IndicatorConfig
	file string
}

type strategyEntry struct {
	cfg  model.StrategyConfig
	file string
}

// mergeConfigs combines every loaded file's indicators and strategies.
// Indicators with the same id are allowed across files only if structurally
// identical (type, timeframe, inputs, params); any mismatch is a ConflictError
// naming both source files. Strategies always conflict on a duplicate id,
// since depends_on wiring makes two strategy defs with the same id
// inherently ambiguous.
func mergeConfigs(configs []fileConfig) (*mergedConfig, error) {
	m := &mergedConfig{
		indicators: make(map[string]indicatorEntry),
		strategies: make(map[string]strategyEntry),
	}

	for _, fc := range configs {
		for _, ind := range fc.cfg.Indicators {
			existing, ok := m.indicators[ind.ID]
			if !ok {
				m.indicators[ind.ID] = indicatorEntry{cfg: ind, file: fc.path}
				m.indOrder = append(m.indOrder, ind.ID)
				continue
			}
			if !sameIndicator(existing.cfg, ind) {
				return nil, &ConflictError{
					Kind:   "indicator",
					ID:     ind.ID,
					FileA:  existing.file,
					FileB:  fc.path,
					Reason: "type, timeframe, inputs, or params differ",
				}
			}
			// Structurally identical: dedup silently.
		}

		for _, st := range fc.cfg.Strategies {
			existing, ok := m.strategies[st.ID]
			if ok {
				return nil, &ConflictError{
					Kind:   "strategy",
					ID:     st.ID,
					FileA:  existing.file,
					FileB:  fc.path,
					Reason: "duplicate strategy id",
				}
			}
			m.strategies[st.ID] = strategyEntry{cfg: st, file: fc.path}
			m.strOrder = append(m.strOrder, st.ID)
		}
	}

	return m, nil
}

func sameIndicator(a, b model.IndicatorConfig) bool {
	return a.Type == b.Type && a.Timeframe == b.Timeframe &&
		reflect.DeepEqual(a.Inputs, b.Inputs) && reflect.DeepEqual(a.Params, b.Params)
}

// toNodeDefs converts a merged config into NodeDef values. An indicator's
// Inputs list is used verbatim when configured (the generic TICK/CANDLE/
// INDICATOR form); Timeframe is sugar for the common case, expanded to a
// single CANDLE input only when Inputs is empty. Strategies get one
// INDICATOR input per depends_on entry and a "signal" output, and are
// marked IsStrategy so the coordinator routes their output to the
// strategy-signals subject instead of the indicator one.
func toNodeDefs(m *mergedConfig) []model.NodeDef {
	defs := make([]model.NodeDef, 0, len(m.indOrder)+len(m.strOrder))

	for _, id := range m.indOrder {
		e := m.indicators[id]
		inputs := e.cfg.Inputs
		if len(inputs) == 0 {
			inputs = []model.InputRef{{Type: model.InputCandle, Timeframe: e.cfg.Timeframe}}
		}
		defs = append(defs, model.NodeDef{
			ID:      e.cfg.ID,
			Type:    e.cfg.Type,
			Inputs:  inputs,
			Params:  e.cfg.Params,
			Outputs: []string{"value"},
		})
	}

	for _, id := range m.strOrder {
		e := m.strategies[id]
		inputs := make([]model.InputRef, 0, len(e.cfg.DependsOn))
		for _, dep := range e.cfg.DependsOn {
			inputs = append(inputs, model.InputRef{Type: model.InputIndicator, Source: dep})
		}
		defs = append(defs, model.NodeDef{
			ID:         e.cfg.ID,
			Type:       e.cfg.Type,
			Inputs:     inputs,
			Params:     e.cfg.Params,
			Outputs:    []string{"signal"},
			IsStrategy: true,
		})
	}

	return defs
}
