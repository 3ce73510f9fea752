package model

// InputType identifies the kind of event a node input subscribes to.
type InputType string

const (
	InputTick      InputType = "TICK"
	InputCandle    InputType = "CANDLE"
	InputIndicator InputType = "INDICATOR"
)

// InputRef describes one input wired into a node: the kind of data it
// consumes, an optional source node id (required for INDICATOR inputs), an
// optional timeframe (required for CANDLE inputs), and an optional field to
// project out of the source's output map (INDICATOR inputs only; when
// empty the whole output map is passed through).
type InputRef struct {
	Type      InputType `yaml:"type" json:"type"`
	Source    string    `yaml:"source,omitempty" json:"source,omitempty"`
	Timeframe string    `yaml:"timeframe,omitempty" json:"timeframe,omitempty"`
	Field     string    `yaml:"field,omitempty" json:"field,omitempty"`
}

// NodeDef is the declarative definition of one DAG node, as produced by the
// pipeline config loader.
type NodeDef struct {
	ID            string     `yaml:"id" json:"id"`
	Type          string     `yaml:"type" json:"type"`
	Inputs        []InputRef `yaml:"inputs" json:"inputs"`
	Params        map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	Outputs       []string   `yaml:"outputs" json:"outputs"`
	// IsStrategy marks a node as a signal-producing strategy rather than an
	// indicator, so outputs route to strategies.signals.* instead of
	// indicators.*. Explicit flag, not inferred from Type's name.
	IsStrategy bool `yaml:"-" json:"is_strategy"`
}

// NodeOutputs is the output map a node's Compute produces for one event:
// field name -> value. Values are typically float64, string, or a nested
// map[string]string (e.g. the reference candlepattern node's filter set).
type NodeOutputs map[string]any

// NodeInputs is the input map an executor gathers for one node's Compute
// call. Keys are "tick", "candle_{timeframe}", or the source node's id
// (optionally projected to a single field's value when InputRef.Field is set).
type NodeInputs map[string]any

// Node is the contract every pipeline node type implements.
type Node interface {
	// ID returns this node's unique identifier within its DAG.
	ID() string

	// InitState returns a fresh, node-type-specific state value. The
	// executor stores this in its node_states map and passes it back into
	// every subsequent Compute call for this node.
	InitState() any

	// Compute derives this node's outputs from its gathered inputs and
	// prior state. It may mutate state in place. Returning an error causes
	// the executor to substitute an empty NodeOutputs{} for this tick
	// (see internal/executor).
	Compute(inputs NodeInputs, state any) (NodeOutputs, error)
}

// Factory constructs a new Node instance from a NodeDef. Registered per
// NodeDef.Type in a dag.Registry.
type Factory func(def NodeDef) (Node, error)
