// Package pointtopoint derives strict one-to-one physical links and the
// mapping from layer-3 capable interfaces to the physical interface they use.
package pointtopoint

import (
	"github.com/telekom/das-schiff-network-topology/pkg/helpers/maps"
	"github.com/telekom/das-schiff-network-topology/pkg/layer1"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"k8s.io/apimachinery/pkg/util/sets"
)

// PhysicalPointToPoint returns both directions of every link whose two ends
// have exactly one neighbor. Direction of the input edges is ignored. A node
// linked to Missing is disqualified together with everything it touches.
func PhysicalPointToPoint(logical *layer1.Topology) map[layer1.Node]layer1.Node {
	neighbors := map[layer1.Node]sets.Set[layer1.Node]{}
	link := func(n1, n2 layer1.Node) {
		if _, ok := neighbors[n1]; !ok {
			neighbors[n1] = sets.New[layer1.Node]()
		}
		neighbors[n1].Insert(n2)
	}
	for _, e := range logical.Edges() {
		link(e.Node1, e.Node2)
		link(e.Node2, e.Node1)
	}

	result := map[layer1.Node]layer1.Node{}
	for n, adjacent := range neighbors {
		if n.IsMissing() || adjacent.Len() != 1 {
			continue
		}
		neighbor := adjacent.UnsortedList()[0]
		if neighbor.IsMissing() || neighbors[neighbor].Len() != 1 {
			continue
		}
		result[n] = neighbor
	}
	return result
}

var parentKinds = sets.New(
	model.KindPhysical,
	model.KindAggregated,
	model.KindAggregateChild,
	model.KindSubinterface,
)

// InterfacesToParent maps every active, routed interface to the physical
// interface carrying it: itself, or the parent named by its bind dependency.
// Aggregate children without a bind dependency use their aggregate instead and
// plain aggregate members are skipped. Interfaces whose parent is absent or
// inactive are left out.
func InterfacesToParent(network *model.Network) map[model.InterfaceID]model.InterfaceID {
	result := map[model.InterfaceID]model.InterfaceID{}
	for _, id := range network.InterfaceIDs() {
		iface, _ := network.Interface(id)
		if !iface.IsActive() || iface.IsSwitchport() || !parentKinds.Has(iface.Kind) {
			continue
		}
		parent, bound := iface.Parent(model.DependencyBind)
		if aggregate, member := iface.Parent(model.DependencyAggregate); member && !bound {
			if iface.Kind != model.KindAggregateChild {
				continue
			}
			parent, bound = aggregate, true
		}
		if !bound {
			result[id] = id
			continue
		}
		parentID := model.InterfaceID{Hostname: id.Hostname, Interface: parent}
		if network.IsActive(parentID) {
			result[id] = parentID
		}
	}
	return result
}

// Reverse groups interfaces by the physical interface they map to.
func Reverse(interfacesToParent map[model.InterfaceID]model.InterfaceID) map[model.InterfaceID]sets.Set[model.InterfaceID] {
	return maps.Invert(interfacesToParent)
}

// Maps bundles the point-to-point views of one snapshot.
type Maps struct {
	Physical         map[layer1.Node]layer1.Node
	InterfaceParents map[model.InterfaceID]model.InterfaceID
	ParentInterfaces map[model.InterfaceID]sets.Set[model.InterfaceID]
}

// Compute derives the maps from the logical view, which must still contain the
// edges to Missing.
func Compute(network *model.Network, logical *layer1.Topology) *Maps {
	parents := InterfacesToParent(network)
	return &Maps{
		Physical:         PhysicalPointToPoint(logical),
		InterfaceParents: parents,
		ParentInterfaces: Reverse(parents),
	}
}
