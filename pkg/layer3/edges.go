package layer3

import (
	"encoding/json"
	"fmt"
	"net/netip"

	"github.com/telekom/das-schiff-network-topology/pkg/helpers/slice"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"golang.org/x/exp/slices"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Edge is a directed layer-3 adjacency between two interfaces.
type Edge struct {
	Interface1 model.InterfaceID `json:"interface1"`
	Interface2 model.InterfaceID `json:"interface2"`
}

func NewEdge(i1, i2 model.InterfaceID) Edge {
	return Edge{Interface1: i1, Interface2: i2}
}

func (e Edge) Reverse() Edge {
	return Edge{Interface1: e.Interface2, Interface2: e.Interface1}
}

func (e Edge) Compare(other Edge) int {
	if c := e.Interface1.Compare(other.Interface1); c != 0 {
		return c
	}
	return e.Interface2.Compare(other.Interface2)
}

func (e Edge) String() string {
	return e.Interface1.String() + " -> " + e.Interface2.String()
}

// Topology is an immutable set of layer-3 edges without self-loops.
type Topology struct {
	edges   []Edge
	edgeSet sets.Set[Edge]
}

func NewTopology(edges ...Edge) *Topology {
	t := &Topology{edgeSet: sets.New[Edge]()}
	for _, e := range edges {
		if e.Interface1 == e.Interface2 || t.edgeSet.Has(e) {
			continue
		}
		t.edgeSet.Insert(e)
		t.edges = append(t.edges, e)
	}
	slices.SortFunc(t.edges, Edge.Compare)
	return t
}

func (t *Topology) Edges() []Edge {
	return append([]Edge{}, t.edges...)
}

func (t *Topology) HasEdge(e Edge) bool {
	return t.edgeSet.Has(e)
}

// Neighbors returns the targets of the edges leaving id in ascending order.
func (t *Topology) Neighbors(id model.InterfaceID) []model.InterfaceID {
	var result []model.InterfaceID
	for _, e := range t.edges {
		if e.Interface1 == id {
			result = append(result, e.Interface2)
		}
	}
	return result
}

func (t *Topology) Len() int {
	return len(t.edges)
}

type topologyDocument struct {
	Edges []Edge `json:"edges"`
}

func (t *Topology) MarshalJSON() ([]byte, error) {
	return json.Marshal(topologyDocument{Edges: t.Edges()})
}

func (t *Topology) UnmarshalJSON(data []byte) error {
	var doc topologyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error decoding layer3 topology: %w", err)
	}
	*t = *NewTopology(doc.Edges...)
	return nil
}

// Options tune the edge derivation.
type Options struct {
	// ExcludeTunnels drops tunnel interfaces from subnet matching. Tunnels are
	// expected to arrive as overlay edges instead.
	ExcludeTunnels bool
}

type addressed struct {
	id    model.InterfaceID
	vrf   string
	addrs sets.Set[netip.Addr]
}

// ComputeEdges matches interfaces sharing a subnet, keeps the pairs the
// adjacencies consider reachable and adds the overlay edges in both directions.
// Interfaces with only link-local addresses are matched through their
// point-to-point pairing.
func ComputeEdges(network *model.Network, adjacencies Adjacencies, overlay []Edge, opts Options) *Topology {
	bySubnet := map[netip.Prefix][]*addressed{}
	var subnets []netip.Prefix
	unnumbered := []model.InterfaceID{}

	for _, id := range network.InterfaceIDs() {
		iface, _ := network.Interface(id)
		if !iface.IsActive() || (opts.ExcludeTunnels && iface.Kind == model.KindTunnel) {
			continue
		}
		prefixes := iface.ConcretePrefixes()
		if len(prefixes) == 0 {
			if len(iface.LinkLocalPrefixes()) > 0 {
				unnumbered = append(unnumbered, id)
			}
			continue
		}
		entry := &addressed{id: id, vrf: iface.VRFName(), addrs: sets.New[netip.Addr]()}
		for _, p := range prefixes {
			entry.addrs.Insert(p.Addr())
		}
		seen := sets.New[netip.Prefix]()
		for _, p := range prefixes {
			subnet := p.Masked()
			if seen.Has(subnet) {
				continue
			}
			seen.Insert(subnet)
			if _, ok := bySubnet[subnet]; !ok {
				subnets = append(subnets, subnet)
			}
			bySubnet[subnet] = append(bySubnet[subnet], entry)
		}
	}

	edges := []Edge{}
	for _, subnet := range subnets {
		members := bySubnet[subnet]
		for _, m1 := range members {
			for _, m2 := range members {
				if m1 == m2 || (m1.id.Hostname == m2.id.Hostname && m1.vrf == m2.vrf) {
					continue
				}
				if m1.addrs.HasAny(m2.addrs.UnsortedList()...) {
					continue
				}
				if adjacencies.InSameBroadcastDomain(m1.id, m2.id) {
					edges = append(edges, NewEdge(m1.id, m2.id))
				}
			}
		}
	}

	unnumberedSet := sets.New(unnumbered...)
	for _, id := range unnumbered {
		peer, ok := adjacencies.PairedPointToPointL3Interface(id)
		if !ok || !unnumberedSet.Has(peer) {
			continue
		}
		if adjacencies.InSamePointToPointDomain(id, peer) {
			edges = append(edges, NewEdge(id, peer))
		}
	}

	for _, e := range overlay {
		edges = append(edges, e, e.Reverse())
	}
	return NewTopology(edges...)
}

// FromSpecs converts overlay edge specs.
func FromSpecs(specs []model.Layer3EdgeSpec) []Edge {
	return slice.Map(specs, func(s model.Layer3EdgeSpec) Edge {
		return NewEdge(s.Interface1.ID(), s.Interface2.ID())
	})
}
