// Package layer2 computes broadcast domains from layer-2 edges.
package layer2

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/telekom/das-schiff-network-topology/pkg/helpers/maps"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"github.com/telekom/das-schiff-network-topology/pkg/vlan"
	"golang.org/x/exp/slices"
	"k8s.io/apimachinery/pkg/util/sets"
)

var ErrOverlappingDomains = errors.New("broadcast domains overlap")

// OverlapError names a node found in more than one input domain.
type OverlapError struct {
	Node Node
}

func (e OverlapError) Error() string {
	return fmt.Sprintf("%v: %s", ErrOverlappingDomains, e.Node)
}

func (e OverlapError) Unwrap() error {
	return ErrOverlappingDomains
}

// Node is a slice of an interface. An empty VLAN range is the untagged slice.
type Node struct {
	hostname string
	iface    string
	vlans    vlan.Range
}

// NewNode returns the untagged slice of an interface.
func NewNode(hostname, iface string) Node {
	return Node{hostname: model.CanonicalHostname(hostname), iface: iface}
}

// NewVLANNode returns the slice of an interface carrying vlans. An empty range
// yields the untagged slice.
func NewVLANNode(hostname, iface string, vlans vlan.Range) Node {
	n := NewNode(hostname, iface)
	n.vlans = vlans
	return n
}

// FromID returns the untagged slice of id.
func FromID(id model.InterfaceID) Node {
	return NewNode(id.Hostname, id.Interface)
}

func (n Node) Hostname() string  { return n.hostname }
func (n Node) Interface() string { return n.iface }

// VLANs returns the VLAN range of the slice; ok is false for untagged slices.
func (n Node) VLANs() (r vlan.Range, ok bool) {
	return n.vlans, !n.vlans.IsEmpty()
}

func (n Node) IsUntagged() bool {
	return n.vlans.IsEmpty()
}

// Compare is the total order used to pick domain representatives: hostname,
// interface, then VLAN range with the untagged slice first.
func (n Node) Compare(other Node) int {
	if c := strings.Compare(n.hostname, other.hostname); c != 0 {
		return c
	}
	if c := strings.Compare(n.iface, other.iface); c != 0 {
		return c
	}
	switch {
	case n.IsUntagged() && other.IsUntagged():
		return 0
	case n.IsUntagged():
		return -1
	case other.IsUntagged():
		return 1
	}
	return n.vlans.Compare(other.vlans)
}

func (n Node) String() string {
	if n.IsUntagged() {
		return n.hostname + "[" + n.iface + "]"
	}
	return n.hostname + "[" + n.iface + "]" + n.vlans.String()
}

type nodeDocument struct {
	Hostname  string      `json:"hostname"`
	Interface string      `json:"interface"`
	VLANs     *vlan.Range `json:"vlans,omitempty"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	doc := nodeDocument{Hostname: n.hostname, Interface: n.iface}
	if r, ok := n.VLANs(); ok {
		doc.VLANs = &r
	}
	return json.Marshal(doc)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var doc nodeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error decoding layer2 node: %w", err)
	}
	*n = NewNode(doc.Hostname, doc.Interface)
	if doc.VLANs != nil {
		n.vlans = *doc.VLANs
	}
	return nil
}

// Edge connects two slices.
type Edge struct {
	Node1 Node `json:"node1"`
	Node2 Node `json:"node2"`
}

func NewEdge(n1, n2 Node) Edge {
	return Edge{Node1: n1, Node2: n2}
}

func (e Edge) String() string {
	return e.Node1.String() + " -> " + e.Node2.String()
}

// Topology is an immutable partition of the observed nodes into broadcast domains.
type Topology struct {
	representatives map[Node]Node
	domains         [][]Node
}

// Empty has no nodes.
var Empty = &Topology{representatives: map[Node]Node{}}

// FromEdges unions the endpoints of every edge.
func FromEdges(edges ...Edge) *Topology {
	b := NewBuilder()
	for _, e := range edges {
		b.AddEdge(e)
	}
	return b.Build()
}

// FromDomains builds a topology from disjoint domains. Domains sharing a node
// are rejected.
func FromDomains(domains []sets.Set[Node]) (*Topology, error) {
	owner := map[Node]int{}
	for i, domain := range domains {
		for n := range domain {
			if _, ok := owner[n]; ok {
				return nil, OverlapError{Node: n}
			}
			owner[n] = i
		}
	}
	groups := make([][]Node, 0, len(domains))
	for _, domain := range domains {
		if domain.Len() > 0 {
			groups = append(groups, domain.UnsortedList())
		}
	}
	return newTopology(groups), nil
}

func newTopology(groups [][]Node) *Topology {
	t := &Topology{representatives: map[Node]Node{}, domains: make([][]Node, 0, len(groups))}
	for _, group := range groups {
		members := slices.Clone(group)
		slices.SortFunc(members, Node.Compare)
		representative := members[0]
		for _, n := range members {
			t.representatives[n] = representative
		}
		t.domains = append(t.domains, members)
	}
	slices.SortFunc(t.domains, func(a, b []Node) int { return a[0].Compare(b[0]) })
	return t
}

// Representative returns the representative of the domain holding n.
func (t *Topology) Representative(n Node) (Node, bool) {
	r, ok := t.representatives[n]
	return r, ok
}

// InSameBroadcastDomain reports whether both nodes are known and share a domain.
func (t *Topology) InSameBroadcastDomain(n1, n2 Node) bool {
	r1, ok := t.representatives[n1]
	if !ok {
		return false
	}
	r2, ok := t.representatives[n2]
	return ok && r1 == r2
}

// Domains returns every domain sorted, ordered by representative.
func (t *Topology) Domains() [][]Node {
	out := make([][]Node, len(t.domains))
	for i := range t.domains {
		out[i] = slices.Clone(t.domains[i])
	}
	return out
}

// Nodes returns every observed node in ascending order.
func (t *Topology) Nodes() []Node {
	return maps.SortedKeys(t.representatives, Node.Compare)
}

func (t *Topology) Len() int {
	return len(t.representatives)
}

type topologyDocument struct {
	Domains [][]Node `json:"domains"`
}

func (t *Topology) MarshalJSON() ([]byte, error) {
	return json.Marshal(topologyDocument{Domains: t.Domains()})
}

// UnmarshalJSON rebuilds the topology with FromDomains and fails on overlapping domains.
func (t *Topology) UnmarshalJSON(data []byte) error {
	var doc topologyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error decoding layer2 topology: %w", err)
	}
	domains := make([]sets.Set[Node], len(doc.Domains))
	for i := range doc.Domains {
		domains[i] = sets.New(doc.Domains[i]...)
		if domains[i].Len() != len(doc.Domains[i]) {
			return OverlapError{Node: duplicate(doc.Domains[i])}
		}
	}
	decoded, err := FromDomains(domains)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

func duplicate(nodes []Node) Node {
	seen := sets.New[Node]()
	for _, n := range nodes {
		if seen.Has(n) {
			return n
		}
		seen.Insert(n)
	}
	return Node{}
}
