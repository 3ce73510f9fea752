// Package dag builds and validates the node dependency graph from a flat
// list of model.NodeDef: adjacency and reverse-dependency maps, DFS cycle
// detection reporting the full cycle path, and a Kahn's algorithm
// topological sort with deterministic FIFO tie-breaking.
package dag

import (
	"fmt"

	"github.com/corestream/engine/internal/model"
)

// Graph is a validated, acyclic node dependency graph ready for execution.
type Graph struct {
	Defs map[string]model.NodeDef

	// Adjacency maps a node id to the ids of nodes that directly depend on
	// it (its dependents): edges point from a dependency to its dependents.
	Adjacency map[string][]string

	// ReverseDeps maps a node id to the ids of nodes it directly depends on
	// (its INDICATOR input sources).
	ReverseDeps map[string][]string

	// TopoOrder lists every node id in an order consistent with the
	// dependency graph: every node appears after all of its dependencies.
	TopoOrder []string
}

// Build validates defs and constructs a Graph, or returns a *ConfigError
// describing a missing source, duplicate id, or dependency cycle.
func Build(defs []model.NodeDef) (*Graph, error) {
	byID := make(map[string]model.NodeDef, len(defs))
	var order []string
	for _, d := range defs {
		if _, exists := byID[d.ID]; exists {
			return nil, &ConfigError{Reason: fmt.Sprintf("duplicate node id %q", d.ID)}
		}
		byID[d.ID] = d
		order = append(order, d.ID)
	}

	adjacency, reverseDeps, err := buildAdjacency(byID, order)
	if err != nil {
		return nil, err
	}

	if err := validateNoCycles(order, adjacency); err != nil {
		return nil, err
	}

	topo, err := computeTopoOrder(order, adjacency, reverseDeps)
	if err != nil {
		return nil, err
	}

	return &Graph{
		Defs:        byID,
		Adjacency:   adjacency,
		ReverseDeps: reverseDeps,
		TopoOrder:   topo,
	}, nil
}

// buildAdjacency validates every INDICATOR input's source exists and builds
// the adjacency (dependency -> dependents) and reverseDeps (node ->
// dependencies) maps.
func buildAdjacency(byID map[string]model.NodeDef, order []string) (map[string][]string, map[string][]string, error) {
	adjacency := make(map[string][]string, len(byID))
	reverseDeps := make(map[string][]string, len(byID))
	for _, id := range order {
		adjacency[id] = nil
		reverseDeps[id] = nil
	}

	for _, id := range order {
		def := byID[id]
		for _, in := range def.Inputs {
			if in.Type != model.InputIndicator {
				continue
			}
			if _, ok := byID[in.Source]; !ok {
				return nil, nil, &ConfigError{Reason: fmt.Sprintf("node %q depends on unknown source %q", id, in.Source)}
			}
			adjacency[in.Source] = append(adjacency[in.Source], id)
			reverseDeps[id] = append(reverseDeps[id], in.Source)
		}
	}

	return adjacency, reverseDeps, nil
}

// validateNoCycles performs a DFS from every node, tracking a recursion
// stack so any back-edge is reported with the full cycle path.
func validateNoCycles(order []string, adjacency map[string][]string) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(order))

	var path []string
	var visit func(id string) error
	visit = func(id string) error {
		state[id] = visiting
		path = append(path, id)

		for _, next := range adjacency[id] {
			switch state[next] {
			case visiting:
				cycleStart := 0
				for i, n := range path {
					if n == next {
						cycleStart = i
						break
					}
				}
				cycle := append(append([]string{}, path[cycleStart:]...), next)
				return &ConfigError{Reason: "dependency cycle detected", Path: cycle}
			case unvisited:
				if err := visit(next); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		state[id] = done
		return nil
	}

	for _, id := range order {
		if state[id] == unvisited {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// computeTopoOrder runs Kahn's algorithm: nodes with zero remaining
// dependencies are queued in first-seen order, dequeued FIFO, and each
// dequeue decrements its dependents' remaining in-degree.
func computeTopoOrder(order []string, adjacency, reverseDeps map[string][]string) ([]string, error) {
	inDegree := make(map[string]int, len(order))
	for _, id := range order {
		inDegree[id] = len(reverseDeps[id])
	}

	queue := make([]string, 0, len(order))
	for _, id := range order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	result := make([]string, 0, len(order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, id)

		for _, dependent := range adjacency[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(order) {
		return nil, &ConfigError{Reason: "topological sort did not cover every node"}
	}
	return result, nil
}

// GetDependencies returns the direct dependency ids of id.
func (g *Graph) GetDependencies(id string) []string {
	return g.ReverseDeps[id]
}

// GetDependents returns the direct dependent ids of id.
func (g *Graph) GetDependents(id string) []string {
	return g.Adjacency[id]
}

// GetAllTransitiveDependents returns every node reachable from id by
// following dependents edges, not including id itself.
func (g *Graph) GetAllTransitiveDependents(id string) []string {
	seen := make(map[string]bool)
	var result []string

	var visit func(string)
	visit = func(cur string) {
		for _, next := range g.Adjacency[cur] {
			if !seen[next] {
				seen[next] = true
				result = append(result, next)
				visit(next)
			}
		}
	}
	visit(id)
	return result
}
