// Package vxlan computes which VXLAN segments of different devices bridge
// into each other.
package vxlan

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"

	"github.com/telekom/das-schiff-network-topology/pkg/layer2"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"golang.org/x/exp/slices"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Endpoint is a VNI configured on one device.
type Endpoint struct {
	Hostname string `json:"hostname"`
	VNI      int    `json:"vni"`
}

func (e Endpoint) Compare(other Endpoint) int {
	if c := strings.Compare(e.Hostname, other.Hostname); c != 0 {
		return c
	}
	return e.VNI - other.VNI
}

// Node is the layer-2 pseudo-interface representing the VNI on its device.
func (e Endpoint) Node() layer2.Node {
	v := model.VNI{VNI: e.VNI}
	return layer2.NewNode(e.Hostname, v.InterfaceName())
}

// Edge links two bridged endpoints.
type Edge struct {
	Endpoint1 Endpoint `json:"endpoint1"`
	Endpoint2 Endpoint `json:"endpoint2"`
}

func (e Edge) Compare(other Edge) int {
	if c := e.Endpoint1.Compare(other.Endpoint1); c != 0 {
		return c
	}
	return e.Endpoint2.Compare(other.Endpoint2)
}

// Topology holds every pair of bridged VNIs in both directions.
type Topology struct {
	edges []Edge
}

type settings struct {
	endpoint  Endpoint
	port      int
	source    netip.Addr
	hasSource bool
	flood     sets.Set[netip.Addr]
	group     netip.Addr
	hasGroup  bool
}

func parse(hostname string, v *model.VNI) settings {
	s := settings{
		endpoint: Endpoint{Hostname: model.CanonicalHostname(hostname), VNI: v.VNI},
		port:     v.Port(),
		flood:    sets.New(model.ParseAddrs(v.FloodList)...),
	}
	if addrs := model.ParseAddrs([]string{v.SourceAddress}); len(addrs) == 1 {
		s.source, s.hasSource = addrs[0], true
	}
	if addrs := model.ParseAddrs([]string{v.MulticastGroup}); len(addrs) == 1 {
		s.group, s.hasGroup = addrs[0], true
	}
	return s
}

// compatible reports whether BUM traffic of one VTEP reaches the other.
func compatible(s1, s2 *settings) bool {
	if s1.endpoint.Hostname == s2.endpoint.Hostname || s1.endpoint.VNI != s2.endpoint.VNI {
		return false
	}
	if s1.port != s2.port || !s1.hasSource || !s2.hasSource {
		return false
	}
	if s1.hasGroup && s2.hasGroup {
		return s1.group == s2.group
	}
	return s1.flood.Has(s2.source) && s2.flood.Has(s1.source)
}

// Compute finds all bridged VNI pairs of the network.
func Compute(network *model.Network) *Topology {
	byVNI := map[int][]settings{}
	for _, host := range network.Hostnames() {
		d, _ := network.Device(host)
		for i := range d.VNIs {
			s := parse(host, &d.VNIs[i])
			byVNI[s.endpoint.VNI] = append(byVNI[s.endpoint.VNI], s)
		}
	}
	t := &Topology{}
	for _, group := range byVNI {
		for i := range group {
			for j := range group {
				if i != j && compatible(&group[i], &group[j]) {
					t.edges = append(t.edges, Edge{Endpoint1: group[i].endpoint, Endpoint2: group[j].endpoint})
				}
			}
		}
	}
	slices.SortFunc(t.edges, Edge.Compare)
	return t
}

func (t *Topology) Edges() []Edge {
	return append([]Edge{}, t.edges...)
}

// Layer2Edges converts the bridged pairs into edges between VNI pseudo-interfaces.
func (t *Topology) Layer2Edges() []layer2.Edge {
	result := make([]layer2.Edge, 0, len(t.edges))
	for _, e := range t.edges {
		result = append(result, layer2.NewEdge(e.Endpoint1.Node(), e.Endpoint2.Node()))
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
		return fmt.Errorf("error decoding vxlan topology: %w", err)
	}
	t.edges = doc.Edges
	slices.SortFunc(t.edges, Edge.Compare)
	return nil
}
