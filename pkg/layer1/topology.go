// Package layer1 models physical wiring between interfaces.
package layer1

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/telekom/das-schiff-network-topology/pkg/helpers/maps"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"golang.org/x/exp/slices"
)

// Node is a physical endpoint. The hostname is canonical (lowercase), the
// interface name is kept as given. Missing is a distinct variant that stands
// for "referenced interface does not exist".
type Node struct {
	hostname  string
	iface     string
	isMissing bool
}

// Missing is the sentinel for interfaces that are referenced but not configured.
var Missing = Node{isMissing: true}

func NewNode(hostname, iface string) Node {
	return Node{hostname: model.CanonicalHostname(hostname), iface: iface}
}

func (n Node) Hostname() string  { return n.hostname }
func (n Node) Interface() string { return n.iface }
func (n Node) IsMissing() bool   { return n.isMissing }

// ID converts the node to an interface id. Missing has no id.
func (n Node) ID() (model.InterfaceID, bool) {
	if n.isMissing {
		return model.InterfaceID{}, false
	}
	return model.InterfaceID{Hostname: n.hostname, Interface: n.iface}, true
}

// FromID converts an interface id to a node.
func FromID(id model.InterfaceID) Node {
	return NewNode(id.Hostname, id.Interface)
}

// Compare orders Missing first, then by hostname and interface.
func (n Node) Compare(other Node) int {
	switch {
	case n.isMissing && other.isMissing:
		return 0
	case n.isMissing:
		return -1
	case other.isMissing:
		return 1
	}
	if c := strings.Compare(n.hostname, other.hostname); c != 0 {
		return c
	}
	return strings.Compare(n.iface, other.iface)
}

func (n Node) String() string {
	if n.isMissing {
		return "<missing>"
	}
	return n.hostname + "[" + n.iface + "]"
}

type nodeDocument struct {
	Hostname  string `json:"hostname,omitempty"`
	Interface string `json:"interface,omitempty"`
	Missing   bool   `json:"missing,omitempty"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeDocument{Hostname: n.hostname, Interface: n.iface, Missing: n.isMissing})
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var doc nodeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error decoding layer1 node: %w", err)
	}
	if doc.Missing {
		*n = Missing
		return nil
	}
	*n = NewNode(doc.Hostname, doc.Interface)
	return nil
}

// Edge is a directed physical link.
type Edge struct {
	Node1 Node `json:"node1"`
	Node2 Node `json:"node2"`
}

func NewEdge(n1, n2 Node) Edge {
	return Edge{Node1: n1, Node2: n2}
}

func (e Edge) Reverse() Edge {
	return Edge{Node1: e.Node2, Node2: e.Node1}
}

func (e Edge) IsSelfLoop() bool {
	return e.Node1 == e.Node2
}

func (e Edge) Compare(other Edge) int {
	if c := e.Node1.Compare(other.Node1); c != 0 {
		return c
	}
	return e.Node2.Compare(other.Node2)
}

func (e Edge) String() string {
	return e.Node1.String() + " -> " + e.Node2.String()
}

// Topology is an immutable directed graph of physical nodes. Duplicate edges
// collapse to one and self-loops are dropped.
type Topology struct {
	edges    []Edge
	edgeSet  map[Edge]struct{}
	adjacent map[Node][]Node
}

// Empty is the topology without edges.
var Empty = NewTopology()

func NewTopology(edges ...Edge) *Topology {
	t := &Topology{
		edgeSet:  map[Edge]struct{}{},
		adjacent: map[Node][]Node{},
	}
	for _, e := range edges {
		if e.IsSelfLoop() {
			continue
		}
		if _, ok := t.edgeSet[e]; ok {
			continue
		}
		t.edgeSet[e] = struct{}{}
		t.edges = append(t.edges, e)
		t.adjacent[e.Node1] = append(t.adjacent[e.Node1], e.Node2)
		if _, ok := t.adjacent[e.Node2]; !ok {
			t.adjacent[e.Node2] = nil
		}
	}
	slices.SortFunc(t.edges, Edge.Compare)
	for n := range t.adjacent {
		slices.SortFunc(t.adjacent[n], Node.Compare)
	}
	return t
}

// Edges returns the edges in ascending order.
func (t *Topology) Edges() []Edge {
	return append([]Edge{}, t.edges...)
}

// Nodes returns every node touched by an edge, in ascending order.
func (t *Topology) Nodes() []Node {
	return maps.SortedKeys(t.adjacent, Node.Compare)
}

func (t *Topology) HasEdge(e Edge) bool {
	_, ok := t.edgeSet[e]
	return ok
}

func (t *Topology) HasNode(n Node) bool {
	_, ok := t.adjacent[n]
	return ok
}

// Successors returns the targets of edges leaving n.
func (t *Topology) Successors(n Node) []Node {
	return append([]Node{}, t.adjacent[n]...)
}

func (t *Topology) Len() int {
	return len(t.edges)
}

func (t *Topology) String() string {
	items := make([]string, len(t.edges))
	for i, e := range t.edges {
		items[i] = e.String()
	}
	return "{" + strings.Join(items, ", ") + "}"
}

type topologyDocument struct {
	Edges []Edge `json:"edges"`
}

func (t *Topology) MarshalJSON() ([]byte, error) {
	return json.Marshal(topologyDocument{Edges: t.Edges()})
}

// UnmarshalJSON rebuilds the topology through NewTopology, so decoded data
// never contains self-loops or duplicates.
func (t *Topology) UnmarshalJSON(data []byte) error {
	var doc topologyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error decoding layer1 topology: %w", err)
	}
	*t = *NewTopology(doc.Edges...)
	return nil
}
