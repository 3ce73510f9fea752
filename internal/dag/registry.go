package dag

import (
	"fmt"
	"sort"
	"sync"

	"github.com/corestream/engine/internal/model"
)

// Registry maps node type names to the factory that constructs them.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]model.Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]model.Factory)}
}

// Register associates nodeType with factory. Registering the same type
// twice overwrites the previous factory.
func (r *Registry) Register(nodeType string, factory model.Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[nodeType] = factory
}

// IsRegistered reports whether nodeType has a registered factory.
func (r *Registry) IsRegistered(nodeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[nodeType]
	return ok
}

// ListTypes returns every registered type name, sorted for determinism.
func (r *Registry) ListTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Create constructs a Node for def using the factory registered under
// def.Type, or returns an error listing the known types.
func (r *Registry) Create(def model.NodeDef) (model.Node, error) {
	r.mu.RLock()
	factory, ok := r.factories[def.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dag: unknown node type %q for node %q (registered types: %v)", def.Type, def.ID, r.ListTypes())
	}
	return factory(def)
}
