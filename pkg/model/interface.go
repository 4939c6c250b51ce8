package model

import (
	"net/netip"
	"strings"

	"github.com/telekom/das-schiff-network-topology/pkg/vlan"
)

// InterfaceKind classifies an interface.
type InterfaceKind string

const (
	KindPhysical       InterfaceKind = "physical"
	KindAggregated     InterfaceKind = "aggregated"
	KindAggregateChild InterfaceKind = "aggregate-child"
	KindSubinterface   InterfaceKind = "subinterface"
	KindVLAN           InterfaceKind = "vlan"
	KindLoopback       InterfaceKind = "loopback"
	KindTunnel         InterfaceKind = "tunnel"
	KindVNI            InterfaceKind = "vni"
	KindNull           InterfaceKind = "null"
)

// SwitchportMode of an interface.
type SwitchportMode string

const (
	SwitchportNone   SwitchportMode = ""
	SwitchportAccess SwitchportMode = "access"
	SwitchportTrunk  SwitchportMode = "trunk"
)

// DependencyType describes how an interface relates to another one on the same device.
type DependencyType string

const (
	// DependencyBind ties a subinterface to its parent.
	DependencyBind DependencyType = "bind"
	// DependencyAggregate ties an aggregate member to its aggregate.
	DependencyAggregate DependencyType = "aggregate"
)

// Dependency names another interface of the same device.
type Dependency struct {
	Interface string         `yaml:"interface"`
	Type      DependencyType `yaml:"type"`
}

// Interface is the normalized view of one interface as produced by the
// configuration parsers. Addresses are kept in their textual form.
type Interface struct {
	Name string        `yaml:"name"`
	Kind InterfaceKind `yaml:"kind"`
	// Inactive is set for administratively or operationally down interfaces.
	Inactive bool   `yaml:"inactive"`
	VRF      string `yaml:"vrf"`

	Switchport   SwitchportMode `yaml:"switchport"`
	AccessVLAN   *int           `yaml:"accessVlan"`
	AllowedVLANs string         `yaml:"allowedVlans"`
	NativeVLAN   *int           `yaml:"nativeVlan"`
	// EncapsulationVLAN is the dot1q tag of a routed subinterface.
	EncapsulationVLAN *int `yaml:"encapsulationVlan"`
	// VLAN is the VLAN served by a VLAN (IRB) interface.
	VLAN *int `yaml:"vlan"`

	Dependencies []Dependency `yaml:"dependencies"`

	// Addresses are concrete addresses in prefix notation, primary first.
	Addresses []string `yaml:"addresses"`
	// LinkLocalAddresses are used by unnumbered point-to-point interfaces.
	LinkLocalAddresses []string `yaml:"linkLocalAddresses"`

	VRRPGroups []RedundancyGroup `yaml:"vrrpGroups"`
	HSRPGroups []RedundancyGroup `yaml:"hsrpGroups"`
}

// RedundancyGroup is a VRRP or HSRP group configured on an interface.
type RedundancyGroup struct {
	ID               int      `yaml:"id"`
	Priority         int      `yaml:"priority"`
	VirtualAddresses []string `yaml:"virtualAddresses"`
	// SourceAddress overrides the interface primary address for elections.
	SourceAddress string `yaml:"sourceAddress"`
}

func (i *Interface) IsActive() bool {
	return !i.Inactive
}

func (i *Interface) IsSwitchport() bool {
	return i.Switchport == SwitchportAccess || i.Switchport == SwitchportTrunk
}

// VRFName returns the interface VRF, DefaultVRF when unset.
func (i *Interface) VRFName() string {
	if i.VRF == "" {
		return DefaultVRF
	}
	return i.VRF
}

// AllowedVLANSpace parses AllowedVLANs. An unset list on a trunk allows every VLAN.
func (i *Interface) AllowedVLANSpace() (vlan.Space, error) {
	if strings.TrimSpace(i.AllowedVLANs) == "" && i.Switchport == SwitchportTrunk {
		return vlan.AllVLANs(), nil
	}
	return vlan.ParseSpace(i.AllowedVLANs) //nolint:wrapcheck
}

// Parent returns the interface this one depends on with the given type.
func (i *Interface) Parent(t DependencyType) (string, bool) {
	for _, d := range i.Dependencies {
		if d.Type == t {
			return d.Interface, true
		}
	}
	return "", false
}

// ConcretePrefixes returns the parseable concrete addresses, primary first.
func (i *Interface) ConcretePrefixes() []netip.Prefix {
	return parsePrefixes(i.Addresses)
}

// LinkLocalPrefixes returns the parseable link-local addresses.
func (i *Interface) LinkLocalPrefixes() []netip.Prefix {
	return parsePrefixes(i.LinkLocalAddresses)
}

// PrimaryAddress is the first concrete address of the interface.
func (i *Interface) PrimaryAddress() (netip.Addr, bool) {
	prefixes := i.ConcretePrefixes()
	if len(prefixes) == 0 {
		return netip.Addr{}, false
	}
	return prefixes[0].Addr(), true
}

func parsePrefixes(raw []string) []netip.Prefix {
	result := make([]netip.Prefix, 0, len(raw))
	for _, r := range raw {
		if prefix, err := ParsePrefix(r); err == nil {
			result = append(result, prefix)
		}
	}
	return result
}

// ParsePrefix accepts "10.0.0.1/24" as well as plain addresses, which are
// treated as host prefixes.
func ParsePrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return netip.Prefix{}, err //nolint:wrapcheck
		}
		return netip.PrefixFrom(addr, addr.BitLen()), nil
	}
	return netip.ParsePrefix(s) //nolint:wrapcheck
}

// ParseAddrs returns the parseable addresses of raw, dropping prefix lengths.
func ParseAddrs(raw []string) []netip.Addr {
	prefixes := parsePrefixes(raw)
	result := make([]netip.Addr, len(prefixes))
	for i := range prefixes {
		result[i] = prefixes[i].Addr()
	}
	return result
}
