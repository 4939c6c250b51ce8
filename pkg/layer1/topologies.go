package layer1

import (
	"encoding/json"
	"fmt"

	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Topologies holds the related views of the physical wiring of a snapshot.
type Topologies struct {
	userProvided  *Topology
	synthesized   *Topology
	combined      *Topology
	logical       *Topology
	activeLogical *Topology
}

// FromSpecs builds a topology from user-supplied edge specs.
func FromSpecs(specs []model.Layer1EdgeSpec) *Topology {
	edges := make([]Edge, 0, len(specs))
	for _, s := range specs {
		edges = append(edges, NewEdge(
			NewNode(s.Node1.Hostname, s.Node1.Interface),
			NewNode(s.Node2.Hostname, s.Node2.Interface),
		))
	}
	return NewTopology(edges...)
}

// NewTopologies derives all views from the user-provided and synthesized
// wiring. Interface names of both inputs are resolved case-insensitively
// against the device configurations.
func NewTopologies(network *model.Network, userProvided, synthesized *Topology) *Topologies {
	if userProvided == nil {
		userProvided = Empty
	}
	if synthesized == nil {
		synthesized = Empty
	}
	user := canonicalize(network, userProvided)
	synth := canonicalize(network, synthesized)
	combined := NewTopology(append(user.Edges(), synth.Edges()...)...)

	return &Topologies{
		userProvided:  user,
		synthesized:   synth,
		combined:      combined,
		logical:       computeLogical(network, combined),
		activeLogical: computeActiveLogical(network, combined),
	}
}

func canonicalize(network *model.Network, t *Topology) *Topology {
	edges := make([]Edge, 0, t.Len())
	canonical := func(n Node) Node {
		if n.IsMissing() {
			return n
		}
		return NewNode(n.Hostname(), network.CanonicalInterfaceName(n.Hostname(), n.Interface()))
	}
	for _, e := range t.Edges() {
		edges = append(edges, NewEdge(canonical(e.Node1), canonical(e.Node2)))
	}
	return NewTopology(edges...)
}

// ToLogical replaces aggregate members by their aggregate and interfaces that
// do not exist by Missing.
func ToLogical(network *model.Network, n Node) Node {
	id, ok := n.ID()
	if !ok {
		return Missing
	}
	iface, ok := network.Interface(id)
	if !ok {
		return Missing
	}
	if aggregate, ok := iface.Parent(model.DependencyAggregate); ok {
		parent := model.InterfaceID{Hostname: id.Hostname, Interface: aggregate}
		if _, ok := network.Interface(parent); !ok {
			return Missing
		}
		return FromID(parent)
	}
	return n
}

func computeLogical(network *model.Network, combined *Topology) *Topology {
	edges := make([]Edge, 0, combined.Len())
	for _, e := range combined.Edges() {
		edges = append(edges, NewEdge(ToLogical(network, e.Node1), ToLogical(network, e.Node2)))
	}
	return NewTopology(edges...)
}

func isActive(network *model.Network, n Node) bool {
	id, ok := n.ID()
	return ok && network.IsActive(id)
}

// computeActiveLogical keeps the edges whose physical and logical endpoints
// all exist and are active, and adds the reverse of every kept edge.
func computeActiveLogical(network *model.Network, combined *Topology) *Topology {
	edges := []Edge{}
	for _, e := range combined.Edges() {
		if !isActive(network, e.Node1) || !isActive(network, e.Node2) {
			continue
		}
		logical := NewEdge(ToLogical(network, e.Node1), ToLogical(network, e.Node2))
		if !isActive(network, logical.Node1) || !isActive(network, logical.Node2) {
			continue
		}
		edges = append(edges, logical, logical.Reverse())
	}
	return NewTopology(edges...)
}

// UserProvided is the user wiring with canonical interface names.
func (t *Topologies) UserProvided() *Topology { return t.userProvided }

// Synthesized is the wiring inferred from configuration.
func (t *Topologies) Synthesized() *Topology { return t.synthesized }

// Combined is the union of UserProvided and Synthesized.
func (t *Topologies) Combined() *Topology { return t.combined }

// Logical is Combined with aggregates resolved and missing interfaces replaced by Missing.
func (t *Topologies) Logical() *Topology { return t.logical }

// ActiveLogical is the bidirectional logical wiring between active interfaces.
func (t *Topologies) ActiveLogical() *Topology { return t.activeLogical }

// HasL1 reports whether any wiring is known at all.
func (t *Topologies) HasL1() bool {
	return t.combined.Len() > 0
}

// HostsWithL1 returns the hostnames appearing in the combined wiring.
func (t *Topologies) HostsWithL1() sets.Set[string] {
	hosts := sets.New[string]()
	for _, n := range t.combined.Nodes() {
		if !n.IsMissing() {
			hosts.Insert(n.Hostname())
		}
	}
	return hosts
}

type topologiesDocument struct {
	UserProvided  *Topology `json:"userProvided"`
	Synthesized   *Topology `json:"synthesized"`
	Combined      *Topology `json:"combined"`
	Logical       *Topology `json:"logical"`
	ActiveLogical *Topology `json:"activeLogical"`
}

func (t *Topologies) MarshalJSON() ([]byte, error) {
	return json.Marshal(topologiesDocument{
		UserProvided:  t.userProvided,
		Synthesized:   t.synthesized,
		Combined:      t.combined,
		Logical:       t.logical,
		ActiveLogical: t.activeLogical,
	})
}

func (t *Topologies) UnmarshalJSON(data []byte) error {
	var doc topologiesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error decoding layer1 topologies: %w", err)
	}
	orEmpty := func(v *Topology) *Topology {
		if v == nil {
			return Empty
		}
		return v
	}
	*t = Topologies{
		userProvided:  orEmpty(doc.UserProvided),
		synthesized:   orEmpty(doc.Synthesized),
		combined:      orEmpty(doc.Combined),
		logical:       orEmpty(doc.Logical),
		activeLogical: orEmpty(doc.ActiveLogical),
	}
	return nil
}
