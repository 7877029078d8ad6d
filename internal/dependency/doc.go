// Package dependency provides a small directed acyclic graph used to order
// test groups.
//
// Test groups build on one another: the control message tests assume the
// basic utilities work, the controller tests assume authentication works, and
// so on. Running the groups in dependency order means the first failure
// reported is usually the root cause.
//
// # Core Concepts
//
// Graph: nodes plus the order they were added in.
//
// Node: a test group with:
//   - ID: the package path relative to the test root
//   - FriendlyName: the name shown in dividers
//   - Kind: unit or integration
//   - DependsOn: groups that must run first
//
// # Ordering
//
// TopologicalOrder always picks the earliest added node whose dependencies
// have all been placed, so the declared order is preserved wherever the
// dependencies allow it. A cycle or a reference to an unknown node is an
// error.
//
// # Usage Example
//
//	g := dependency.New()
//	g.AddNode(dependency.Node{ID: "util/system", Kind: dependency.KindUnitGroup})
//	g.AddNode(dependency.Node{ID: "version", Kind: dependency.KindUnitGroup, DependsOn: []dependency.NodeID{"util/system"}})
//	order, err := g.TopologicalOrder()
package dependency
