// Package layer3 answers layer-3 adjacency questions and derives the
// layer-3 edge set of a network.
package layer3

import (
	"github.com/telekom/das-schiff-network-topology/pkg/layer1"
	"github.com/telekom/das-schiff-network-topology/pkg/layer2"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"github.com/telekom/das-schiff-network-topology/pkg/pointtopoint"
	"k8s.io/apimachinery/pkg/util/sets"
)

//go:generate mockgen -destination ./mock/mock_adjacencies.go . Adjacencies

// Adjacencies decides whether two layer-3 interfaces can talk to each other directly.
type Adjacencies interface {
	// InSameBroadcastDomain reports whether frames sent by i1 can reach i2.
	InSameBroadcastDomain(i1, i2 model.InterfaceID) bool
	// PairedPointToPointL3Interface returns the single interface at the other
	// end of the point-to-point link used by iface.
	PairedPointToPointL3Interface(iface model.InterfaceID) (model.InterfaceID, bool)
	// InSamePointToPointDomain requires the pairing to hold in both directions.
	InSamePointToPointDomain(i1, i2 model.InterfaceID) bool
}

type global struct{}

// Global treats every pair of interfaces as adjacent. It is used when no
// physical wiring is known at all.
func Global() Adjacencies {
	return global{}
}

func (global) InSameBroadcastDomain(_, _ model.InterfaceID) bool { return true }

func (global) PairedPointToPointL3Interface(_ model.InterfaceID) (model.InterfaceID, bool) {
	return model.InterfaceID{}, false
}

func (global) InSamePointToPointDomain(_, _ model.InterfaceID) bool { return false }

// Hybrid uses the broadcast domains for hosts with known wiring and assumes
// reachability for every other host.
type Hybrid struct {
	hostsWithL1      sets.Set[string]
	l2               *layer2.Topology
	physical         map[layer1.Node]layer1.Node
	interfaceParents map[model.InterfaceID]model.InterfaceID
	parentInterfaces map[model.InterfaceID]sets.Set[model.InterfaceID]
}

func NewHybrid(
	hostsWithL1 sets.Set[string],
	l2 *layer2.Topology,
	physicalPointToPoint map[layer1.Node]layer1.Node,
	interfaceParents map[model.InterfaceID]model.InterfaceID,
) *Hybrid {
	if l2 == nil {
		l2 = layer2.Empty
	}
	return &Hybrid{
		hostsWithL1:      hostsWithL1,
		l2:               l2,
		physical:         physicalPointToPoint,
		interfaceParents: interfaceParents,
		parentInterfaces: pointtopoint.Reverse(interfaceParents),
	}
}

func (h *Hybrid) InSameBroadcastDomain(i1, i2 model.InterfaceID) bool {
	if !h.hostsWithL1.Has(i1.Hostname) || !h.hostsWithL1.Has(i2.Hostname) {
		return true
	}
	return h.l2.InSameBroadcastDomain(layer2.FromID(i1), layer2.FromID(i2))
}

// PairedPointToPointL3Interface follows iface to its physical interface, across
// the one-to-one link, and back up to the interfaces using the neighbor. Only
// a single candidate in the same broadcast domain is an answer.
func (h *Hybrid) PairedPointToPointL3Interface(iface model.InterfaceID) (model.InterfaceID, bool) {
	parent, ok := h.interfaceParents[iface]
	if !ok {
		return model.InterfaceID{}, false
	}
	neighbor, ok := h.physical[layer1.FromID(parent)]
	if !ok {
		return model.InterfaceID{}, false
	}
	neighborID, ok := neighbor.ID()
	if !ok {
		return model.InterfaceID{}, false
	}
	var (
		found model.InterfaceID
		count int
	)
	for candidate := range h.parentInterfaces[neighborID] {
		if !h.InSameBroadcastDomain(iface, candidate) {
			continue
		}
		found = candidate
		count++
	}
	if count != 1 {
		return model.InterfaceID{}, false
	}
	return found, true
}

func (h *Hybrid) InSamePointToPointDomain(i1, i2 model.InterfaceID) bool {
	p1, ok := h.PairedPointToPointL3Interface(i1)
	if !ok || p1 != i2 {
		return false
	}
	p2, ok := h.PairedPointToPointL3Interface(i2)
	return ok && p2 == i1
}
