// Package model holds the normalized per-device configuration consumed by the
// topology engine and the identifiers shared between the topology layers.
package model

import (
	"fmt"
	"strings"

	"github.com/telekom/das-schiff-network-topology/pkg/helpers/maps"
	"golang.org/x/exp/slices"
)

const (
	DefaultVRF = "default"
	// DefaultVXLANPort is the IANA VXLAN UDP port.
	DefaultVXLANPort = 4789
)

// Device is one configured network device.
type Device struct {
	Hostname   string       `yaml:"hostname"`
	Interfaces []*Interface `yaml:"interfaces"`
	VNIs       []VNI        `yaml:"vnis"`
}

// VNI is a layer-2 VXLAN segment configured on a device.
type VNI struct {
	VNI  int  `yaml:"vni"`
	VLAN *int `yaml:"vlan"`
	// SourceAddress is the local VTEP address.
	SourceAddress string `yaml:"sourceAddress"`
	// FloodList holds the remote VTEPs for unicast BUM replication.
	FloodList []string `yaml:"floodList"`
	// MulticastGroup is used for BUM traffic instead of a flood list.
	MulticastGroup string `yaml:"multicastGroup"`
	UDPPort        int    `yaml:"udpPort"`
}

// Port returns the configured UDP port, DefaultVXLANPort when unset.
func (v *VNI) Port() int {
	if v.UDPPort == 0 {
		return DefaultVXLANPort
	}
	return v.UDPPort
}

// InterfaceName is the pseudo-interface the VNI is represented by in layer 2.
func (v *VNI) InterfaceName() string {
	return fmt.Sprintf("vni-%d", v.VNI)
}

// InterfaceID identifies an interface in the network. Hostnames are lowercase.
type InterfaceID struct {
	Hostname  string `json:"hostname"`
	Interface string `json:"interface"`
}

// NewInterfaceID canonicalizes hostname.
func NewInterfaceID(hostname, iface string) InterfaceID {
	return InterfaceID{Hostname: CanonicalHostname(hostname), Interface: iface}
}

func (id InterfaceID) String() string {
	return id.Hostname + "[" + id.Interface + "]"
}

// Compare orders by hostname, then by interface name.
func (id InterfaceID) Compare(other InterfaceID) int {
	if c := strings.Compare(id.Hostname, other.Hostname); c != 0 {
		return c
	}
	return strings.Compare(id.Interface, other.Interface)
}

// CanonicalHostname lowercases hostname.
func CanonicalHostname(hostname string) string {
	return strings.ToLower(hostname)
}

// Network indexes a set of devices by canonical hostname.
type Network struct {
	devices    map[string]*Device
	interfaces map[InterfaceID]*Interface
	// folded maps hostname -> lowercase interface name -> interface name.
	folded map[string]map[string]string
	// children maps a parent to the interfaces bound to it.
	children map[InterfaceID][]string
}

// NewNetwork indexes devices. Later devices with a duplicate hostname are ignored.
func NewNetwork(devices []*Device) *Network {
	n := &Network{
		devices:    map[string]*Device{},
		interfaces: map[InterfaceID]*Interface{},
		folded:     map[string]map[string]string{},
		children:   map[InterfaceID][]string{},
	}
	for _, d := range devices {
		if d == nil {
			continue
		}
		host := CanonicalHostname(d.Hostname)
		if _, ok := n.devices[host]; ok {
			continue
		}
		n.devices[host] = d
		n.folded[host] = map[string]string{}
		for _, iface := range d.Interfaces {
			if iface == nil {
				continue
			}
			id := InterfaceID{Hostname: host, Interface: iface.Name}
			if _, ok := n.interfaces[id]; ok {
				continue
			}
			n.interfaces[id] = iface
			if _, ok := n.folded[host][strings.ToLower(iface.Name)]; !ok {
				n.folded[host][strings.ToLower(iface.Name)] = iface.Name
			}
			if parent, ok := iface.Parent(DependencyBind); ok {
				parentID := InterfaceID{Hostname: host, Interface: parent}
				n.children[parentID] = append(n.children[parentID], iface.Name)
			}
		}
	}
	for id := range n.children {
		slices.Sort(n.children[id])
	}
	return n
}

// Hostnames returns the canonical hostnames in ascending order.
func (n *Network) Hostnames() []string {
	hosts := maps.Keys(n.devices)
	slices.Sort(hosts)
	return hosts
}

func (n *Network) Device(hostname string) (*Device, bool) {
	d, ok := n.devices[CanonicalHostname(hostname)]
	return d, ok
}

func (n *Network) Interface(id InterfaceID) (*Interface, bool) {
	iface, ok := n.interfaces[id]
	return iface, ok
}

// InterfaceIDs returns all interface ids in ascending order.
func (n *Network) InterfaceIDs() []InterfaceID {
	ids := maps.Keys(n.interfaces)
	slices.SortFunc(ids, InterfaceID.Compare)
	return ids
}

// DeviceInterfaceIDs returns the interface ids of one device in configuration order.
func (n *Network) DeviceInterfaceIDs(hostname string) []InterfaceID {
	d, ok := n.Device(hostname)
	if !ok {
		return nil
	}
	host := CanonicalHostname(hostname)
	ids := make([]InterfaceID, 0, len(d.Interfaces))
	for _, iface := range d.Interfaces {
		if iface == nil {
			continue
		}
		id := InterfaceID{Hostname: host, Interface: iface.Name}
		if n.interfaces[id] == iface {
			ids = append(ids, id)
		}
	}
	return ids
}

// CanonicalInterfaceName resolves name case-insensitively against the device
// configuration. Unknown names are returned unchanged.
func (n *Network) CanonicalInterfaceName(hostname, name string) string {
	if byName, ok := n.folded[CanonicalHostname(hostname)]; ok {
		if _, exact := n.interfaces[NewInterfaceID(hostname, name)]; exact {
			return name
		}
		if canonical, ok := byName[strings.ToLower(name)]; ok {
			return canonical
		}
	}
	return name
}

// Children returns the interfaces bound to id, sorted by name.
func (n *Network) Children(id InterfaceID) []InterfaceID {
	names := n.children[id]
	result := make([]InterfaceID, len(names))
	for i, name := range names {
		result[i] = InterfaceID{Hostname: id.Hostname, Interface: name}
	}
	return result
}

// IsActive reports whether id exists and is active.
func (n *Network) IsActive(id InterfaceID) bool {
	iface, ok := n.interfaces[id]
	return ok && iface.IsActive()
}
