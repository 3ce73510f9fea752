package dag

import (
	"fmt"
	"strings"
)

// ConfigError reports a structural problem in a set of NodeDefs that
// prevents a DAG from being built: a missing INDICATOR source, a dependency
// cycle, or a duplicate node id.
type ConfigError struct {
	Reason string
	Path   []string // populated for cycle errors: the cycle, in order
}

func (e *ConfigError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("dag: %s", e.Reason)
	}
	return fmt.Sprintf("dag: %s: %s", e.Reason, strings.Join(e.Path, " -> "))
}
