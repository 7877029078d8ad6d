package testing

import (
	"fmt"

	"github.com/saturn597/stem/internal/dependency"
)

// unitGroups is in declaration order. Each group builds on what the groups
// it depends on exercise.
var unitGroups = []Group{
	{Name: "util/enum", Kind: GroupUnit},
	{Name: "util/system", Kind: GroupUnit, DependsOn: []string{"util/enum"}},
	{Name: "version", Kind: GroupUnit, DependsOn: []string{"util/system"}},
	{Name: "socket/controlmessage", Kind: GroupUnit, DependsOn: []string{"util/enum"}},
	{Name: "socket/controlline", Kind: GroupUnit, DependsOn: []string{"socket/controlmessage"}},
	{Name: "connection/authentication", Kind: GroupUnit, DependsOn: []string{"socket/controlmessage"}},
	{Name: "connection/protocolinfo", Kind: GroupUnit, DependsOn: []string{"connection/authentication", "version"}},
}

var integrationGroups = []Group{
	{Name: "util/conf", Kind: GroupIntegration},
	{Name: "util/system", Kind: GroupIntegration},
	{Name: "version", Kind: GroupIntegration, DependsOn: []string{"util/system"}},
	{Name: "socket/controlmessage", Kind: GroupIntegration, DependsOn: []string{"util/conf"}},
	{Name: "connection/protocolinfo", Kind: GroupIntegration, DependsOn: []string{"socket/controlmessage", "version"}},
	{Name: "connection/authentication", Kind: GroupIntegration, DependsOn: []string{"connection/protocolinfo"}},
	{Name: "connection/connect", Kind: GroupIntegration, DependsOn: []string{"connection/authentication"}},
	{Name: "control/controller", Kind: GroupIntegration, DependsOn: []string{"connection/connect"}},
}

// UnitGroups returns the unit test groups in execution order.
func UnitGroups() ([]Group, error) {
	return OrderGroups(unitGroups)
}

// IntegrationGroups returns the integration test groups in execution order.
func IntegrationGroups() ([]Group, error) {
	return OrderGroups(integrationGroups)
}

// OrderGroups sorts groups so each runs after its dependencies, keeping the
// given order where the dependencies allow it.
func OrderGroups(groups []Group) ([]Group, error) {
	g := dependency.New()
	byName := make(map[dependency.NodeID]Group, len(groups))
	for _, group := range groups {
		id := dependency.NodeID(group.Name)
		if _, dup := byName[id]; dup {
			return nil, fmt.Errorf("test group %s is declared twice", group.Name)
		}
		byName[id] = group

		deps := make([]dependency.NodeID, len(group.DependsOn))
		for i, dep := range group.DependsOn {
			deps[i] = dependency.NodeID(dep)
		}
		g.AddNode(dependency.Node{
			ID:           id,
			FriendlyName: group.DisplayName(),
			Kind:         nodeKind(group.Kind),
			DependsOn:    deps,
		})
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to order test groups: %w", err)
	}

	ordered := make([]Group, len(order))
	for i, id := range order {
		ordered[i] = byName[id]
	}
	return ordered, nil
}

func nodeKind(kind GroupKind) dependency.NodeKind {
	switch kind {
	case GroupUnit:
		return dependency.KindUnitGroup
	case GroupIntegration:
		return dependency.KindIntegrationGroup
	default:
		return dependency.KindUnknown
	}
}
