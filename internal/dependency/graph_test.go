package dependency

import (
	"errors"
	"reflect"
	"testing"
)

func TestNew(t *testing.T) {
	g := New()
	if g == nil {
		t.Fatal("New() returned nil")
	}
	if g.nodes == nil {
		t.Fatal("nodes map not initialized")
	}
	if g.Len() != 0 {
		t.Fatalf("expected empty graph, got %d nodes", g.Len())
	}
}

func TestAddNode(t *testing.T) {
	g := New()
	deps := []NodeID{"util/system"}
	g.AddNode(Node{ID: "util/system", Kind: KindUnitGroup})
	g.AddNode(Node{ID: "version", Kind: KindUnitGroup, DependsOn: deps})

	if g.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", g.Len())
	}

	// callers keep ownership of the slice they passed in
	deps[0] = "mutated"
	if got := g.Dependencies("version"); !reflect.DeepEqual(got, []NodeID{"util/system"}) {
		t.Errorf("stored dependencies were mutated: %v", got)
	}

	g.AddNode(Node{ID: "util/system", FriendlyName: "replaced", Kind: KindUnitGroup})
	if g.Len() != 2 {
		t.Errorf("replacing a node should not add one, got %d", g.Len())
	}
	if g.Get("util/system").FriendlyName != "replaced" {
		t.Error("node was not replaced")
	}
}

func TestGet(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", FriendlyName: "A", Kind: KindIntegrationGroup})

	if n := g.Get("a"); n == nil || n.FriendlyName != "A" || n.Kind != KindIntegrationGroup {
		t.Errorf("unexpected node: %+v", n)
	}
	if n := g.Get("missing"); n != nil {
		t.Errorf("expected nil for missing node, got %+v", n)
	}
}

func TestDependents(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b", DependsOn: []NodeID{"a"}})
	g.AddNode(Node{ID: "c", DependsOn: []NodeID{"a", "b"}})

	if got := g.Dependents("a"); !reflect.DeepEqual(got, []NodeID{"b", "c"}) {
		t.Errorf("Dependents(a) = %v", got)
	}
	if got := g.Dependents("c"); len(got) != 0 {
		t.Errorf("Dependents(c) = %v, want none", got)
	}
}

func TestTopologicalOrder(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		want  []NodeID
	}{
		{
			name: "consistent declaration order is kept",
			nodes: []Node{
				{ID: "util/enum"},
				{ID: "util/system", DependsOn: []NodeID{"util/enum"}},
				{ID: "version", DependsOn: []NodeID{"util/system"}},
			},
			want: []NodeID{"util/enum", "util/system", "version"},
		},
		{
			name: "dependency declared later moves forward",
			nodes: []Node{
				{ID: "control/controller", DependsOn: []NodeID{"connection/connect"}},
				{ID: "util/conf"},
				{ID: "connection/connect", DependsOn: []NodeID{"util/conf"}},
			},
			want: []NodeID{"util/conf", "connection/connect", "control/controller"},
		},
		{
			name: "independent nodes keep declaration order",
			nodes: []Node{
				{ID: "b"},
				{ID: "a"},
				{ID: "c", DependsOn: []NodeID{"a"}},
			},
			want: []NodeID{"b", "a", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, n := range tt.nodes {
				g.AddNode(n)
			}
			got, err := g.TopologicalOrder()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopologicalOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopologicalOrder_Cycle(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "root"})
	g.AddNode(Node{ID: "a", DependsOn: []NodeID{"b"}})
	g.AddNode(Node{ID: "b", DependsOn: []NodeID{"a"}})

	_, err := g.TopologicalOrder()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if !reflect.DeepEqual(cycleErr.Remaining, []NodeID{"a", "b"}) {
		t.Errorf("Remaining = %v", cycleErr.Remaining)
	}
}

func TestTopologicalOrder_UnknownDependency(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", DependsOn: []NodeID{"ghost"}})

	if _, err := g.TopologicalOrder(); err == nil {
		t.Fatal("expected an error for an unknown dependency")
	}
}

func TestNodeKind_String(t *testing.T) {
	if KindUnitGroup.String() != "unit" || KindIntegrationGroup.String() != "integration" || KindUnknown.String() != "unknown" {
		t.Error("unexpected kind names")
	}
}
