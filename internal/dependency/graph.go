// internal/dependency/graph.go
package dependency

import (
	"fmt"
	"strings"
)

// NodeID is the unique identifier for a node inside a dependency graph. Test
// groups use their package path relative to the test root, e.g. "util/system".
type NodeID string

// NodeKind categorises nodes.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindUnitGroup
	KindIntegrationGroup
)

// String returns a human readable kind.
func (k NodeKind) String() string {
	switch k {
	case KindUnitGroup:
		return "unit"
	case KindIntegrationGroup:
		return "integration"
	default:
		return "unknown"
	}
}

// Node represents a test group together with the groups it builds on.
type Node struct {
	ID           NodeID
	FriendlyName string
	Kind         NodeKind
	DependsOn    []NodeID
}

// Graph is a very small helper to answer dependency queries. It remembers
// the order nodes were added in, which breaks ties when ordering.
// It is *not* thread-safe.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// AddNode adds (or replaces) a node in the graph. A replaced node keeps its
// original position.
func (g *Graph) AddNode(n Node) {
	if g.nodes == nil {
		g.nodes = make(map[NodeID]*Node)
	}
	if _, exists := g.nodes[n.ID]; !exists {
		g.order = append(g.order, n.ID)
	}
	copied := n
	copied.DependsOn = append([]NodeID(nil), n.DependsOn...)
	g.nodes[n.ID] = &copied
}

// Get returns a pointer to the stored node or nil if it does not exist.
func (g *Graph) Get(id NodeID) *Node {
	return g.nodes[id]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Dependencies returns a slice of immediate dependency IDs for the given node.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	if n, ok := g.nodes[id]; ok {
		depsCopy := make([]NodeID, len(n.DependsOn))
		copy(depsCopy, n.DependsOn)
		return depsCopy
	}
	return nil
}

// Dependents returns all node IDs that have a direct dependency on the given
// node, in insertion order.
func (g *Graph) Dependents(id NodeID) []NodeID {
	var res []NodeID
	for _, nodeID := range g.order {
		for _, dep := range g.nodes[nodeID].DependsOn {
			if dep == id {
				res = append(res, nodeID)
				break
			}
		}
	}
	return res
}

// CycleError reports the nodes that could not be ordered.
type CycleError struct {
	Remaining []NodeID
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Remaining))
	for i, id := range e.Remaining {
		names[i] = string(id)
	}
	return fmt.Sprintf("dependency cycle between: %s", strings.Join(names, ", "))
}

// TopologicalOrder returns every node so that each comes after all of its
// dependencies. Among nodes that are ready at the same time the one added
// first wins, so an already consistent insertion order is returned as is.
func (g *Graph) TopologicalOrder() ([]NodeID, error) {
	pending := make(map[NodeID]int, len(g.order))
	for _, id := range g.order {
		seen := make(map[NodeID]bool)
		for _, dep := range g.nodes[id].DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				return nil, fmt.Errorf("%s depends on unknown node %s", id, dep)
			}
			seen[dep] = true
		}
		pending[id] = len(seen)
	}

	done := make(map[NodeID]bool, len(g.order))
	result := make([]NodeID, 0, len(g.order))
	for len(result) < len(g.order) {
		progressed := false
		for _, id := range g.order {
			if done[id] || pending[id] > 0 {
				continue
			}
			done[id] = true
			result = append(result, id)
			for _, dependent := range g.Dependents(id) {
				pending[dependent]--
			}
			progressed = true
			break
		}
		if !progressed {
			var remaining []NodeID
			for _, id := range g.order {
				if !done[id] {
					remaining = append(remaining, id)
				}
			}
			return nil, &CycleError{Remaining: remaining}
		}
	}
	return result, nil
}
