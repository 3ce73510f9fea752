package model

// IndicatorConfig is one indicator entry in a pipeline YAML file. Inputs is
// the generic input list (TICK/CANDLE/INDICATOR kinds, same shape the DAG
// builder consumes); Timeframe is shorthand for the common case of a single
// CANDLE input on that timeframe, used only when Inputs is empty.
type IndicatorConfig struct {
	ID        string         `yaml:"id"`
	Type      string         `yaml:"type"`
	Timeframe string         `yaml:"timeframe,omitempty"`
	Inputs    []InputRef     `yaml:"inputs,omitempty"`
	Params    map[string]any `yaml:"params,omitempty"`
}

// StrategyConfig is one strategy entry in a pipeline YAML file. DependsOn
// names other indicator/strategy ids whose outputs feed this strategy as
// INDICATOR inputs.
type StrategyConfig struct {
	ID        string         `yaml:"id"`
	Type      string         `yaml:"type"`
	DependsOn []string       `yaml:"depends_on,omitempty"`
	Params    map[string]any `yaml:"params,omitempty"`
}

// PipelineConfig is the parsed shape of one pipeline YAML file, as loaded
// from config_dir/pipelines/{symbol}/*.yaml.
type PipelineConfig struct {
	Symbol     string           `yaml:"symbol"`
	Indicators []IndicatorConfig `yaml:"indicators,omitempty"`
	Strategies []StrategyConfig  `yaml:"strategies,omitempty"`
}
