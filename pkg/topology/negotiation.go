package topology

import (
	"github.com/telekom/das-schiff-network-topology/pkg/layer2"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"github.com/telekom/das-schiff-network-topology/pkg/vlan"
)

// endpoint is the layer-2 behavior of one side of a physical link. The set of
// variants is closed: trunk, taggedSubif, access and plain.
type endpoint interface {
	id() model.InterfaceID
	isEndpoint()
}

// trunk carries the partition slices of its allowed VLANs tagged and its
// native VLAN untagged.
type trunk struct {
	iface   model.InterfaceID
	allowed vlan.Space
	native  *int
	// slices are the partition ranges inside allowed.
	slices    []vlan.Range
	partition *vlan.IntervalMap[model.InterfaceID]
}

// taggedSubif is a routed subinterface sending frames with a single dot1q tag.
type taggedSubif struct {
	iface model.InterfaceID
	tag   int
	// slice is the partition range holding tag.
	slice vlan.Range
}

// access puts untagged frames into one VLAN. A nil VLAN bridges nothing.
type access struct {
	iface model.InterfaceID
	vlan  *int
	slice vlan.Range
}

// plain is an untagged, non-switched interface.
type plain struct {
	iface model.InterfaceID
}

func (t *trunk) id() model.InterfaceID       { return t.iface }
func (t *taggedSubif) id() model.InterfaceID { return t.iface }
func (a *access) id() model.InterfaceID      { return a.iface }
func (p *plain) id() model.InterfaceID       { return p.iface }

func (*trunk) isEndpoint()       {}
func (*taggedSubif) isEndpoint() {}
func (*access) isEndpoint()      {}
func (*plain) isEndpoint()       {}

func (t *trunk) node(r vlan.Range) layer2.Node {
	return layer2.NewVLANNode(t.iface.Hostname, t.iface.Interface, r)
}

// nativeSlice returns the partition range of the native VLAN if the trunk
// allows its own native VLAN.
func (t *trunk) nativeSlice() (vlan.Range, bool) {
	if t.native == nil || !t.allowed.Contains(*t.native) {
		return vlan.Range{}, false
	}
	return t.partition.GetRange(*t.native)
}

func (t *trunk) carries(tag int) bool {
	return t.allowed.Contains(tag) && (t.native == nil || *t.native != tag)
}

func (s *taggedSubif) node() layer2.Node {
	return layer2.FromID(s.iface)
}

func (a *access) node() (layer2.Node, bool) {
	if a.vlan == nil {
		return layer2.Node{}, false
	}
	return layer2.NewVLANNode(a.iface.Hostname, a.iface.Interface, a.slice), true
}

func (p *plain) node() layer2.Node {
	return layer2.FromID(p.iface)
}

// negotiate returns the layer-2 edges two directly wired endpoints create.
// Exactly one branch applies per pair of variants.
func negotiate(a, b endpoint) []layer2.Edge {
	switch a := a.(type) {
	case *trunk:
		switch b := b.(type) {
		case *trunk:
			return trunkTrunk(a, b)
		case *taggedSubif:
			return trunkTagged(a, b)
		case *access:
			return trunkAccess(a, b)
		case *plain:
			return trunkPlain(a, b)
		}
	case *taggedSubif:
		switch b := b.(type) {
		case *trunk:
			return reversed(trunkTagged(b, a))
		case *taggedSubif:
			return taggedTagged(a, b)
		case *access:
			return nil
		case *plain:
			return nil
		}
	case *access:
		switch b := b.(type) {
		case *trunk:
			return reversed(trunkAccess(b, a))
		case *taggedSubif:
			return nil
		case *access:
			return accessAccess(a, b)
		case *plain:
			return accessPlain(a, b)
		}
	case *plain:
		switch b := b.(type) {
		case *trunk:
			return reversed(trunkPlain(b, a))
		case *taggedSubif:
			return nil
		case *access:
			return reversed(accessPlain(b, a))
		case *plain:
			return []layer2.Edge{layer2.NewEdge(a.node(), b.node())}
		}
	}
	return nil
}

func reversed(edges []layer2.Edge) []layer2.Edge {
	for i := range edges {
		edges[i] = layer2.NewEdge(edges[i].Node2, edges[i].Node1)
	}
	return edges
}

func trunkTrunk(a, b *trunk) []layer2.Edge {
	var edges []layer2.Edge
	for _, r := range a.slices {
		if b.allowed.Encloses(r) {
			edges = append(edges, layer2.NewEdge(a.node(r), b.node(r)))
		}
	}
	nativeA, okA := a.nativeSlice()
	nativeB, okB := b.nativeSlice()
	if okA && okB {
		edges = append(edges, layer2.NewEdge(a.node(nativeA), b.node(nativeB)))
	}
	return edges
}

func trunkTagged(a *trunk, b *taggedSubif) []layer2.Edge {
	if !a.carries(b.tag) {
		return nil
	}
	return []layer2.Edge{layer2.NewEdge(a.node(b.slice), b.node())}
}

func trunkAccess(a *trunk, b *access) []layer2.Edge {
	native, ok := a.nativeSlice()
	if !ok {
		return nil
	}
	node, ok := b.node()
	if !ok {
		return nil
	}
	return []layer2.Edge{layer2.NewEdge(a.node(native), node)}
}

func trunkPlain(a *trunk, b *plain) []layer2.Edge {
	native, ok := a.nativeSlice()
	if !ok {
		return nil
	}
	return []layer2.Edge{layer2.NewEdge(a.node(native), b.node())}
}

func taggedTagged(a, b *taggedSubif) []layer2.Edge {
	if a.tag != b.tag {
		return nil
	}
	return []layer2.Edge{layer2.NewEdge(a.node(), b.node())}
}

func accessAccess(a, b *access) []layer2.Edge {
	nodeA, okA := a.node()
	nodeB, okB := b.node()
	if !okA || !okB {
		return nil
	}
	return []layer2.Edge{layer2.NewEdge(nodeA, nodeB)}
}

func accessPlain(a *access, b *plain) []layer2.Edge {
	node, ok := a.node()
	if !ok {
		return nil
	}
	return []layer2.Edge{layer2.NewEdge(node, b.node())}
}
