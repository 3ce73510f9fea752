package pipeline

import "fmt"

// ConflictError reports two pipeline config files disagreeing about the
// same indicator or strategy id in a way that cannot be silently resolved.
type ConflictError struct {
	Kind   string // "indicator" or "strategy"
	ID     string
	FileA  string
	FileB  string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("pipeline: conflicting %s %q between %s and %s: %s", e.Kind, e.ID, e.FileA, e.FileB, e.Reason)
}
