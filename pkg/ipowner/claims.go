// Package ipowner decides which interfaces own which IP addresses, electing a
// single owner for VRRP and HSRP virtual addresses.
package ipowner

import (
	"net/netip"

	"github.com/telekom/das-schiff-network-topology/pkg/model"
)

// Protocol is the source of an address claim.
type Protocol string

const (
	ProtocolStatic Protocol = "static"
	ProtocolVRRP   Protocol = "vrrp"
	ProtocolHSRP   Protocol = "hsrp"
)

// Claim is one interface asserting ownership of an address.
type Claim struct {
	Interface model.InterfaceID `json:"interface"`
	IP        netip.Addr        `json:"ip"`
	Protocol  Protocol          `json:"protocol"`
	GroupID   int               `json:"groupId,omitempty"`
	Priority  int               `json:"priority,omitempty"`
	// Source breaks priority ties; invalid when unknown.
	Source netip.Addr `json:"source,omitempty"`
	Active bool       `json:"active"`
}

type groupKey struct {
	protocol Protocol
	id       int
	ip       netip.Addr
}

func (c *Claim) key() groupKey {
	return groupKey{protocol: c.Protocol, id: c.GroupID, ip: c.IP}
}

// Options control which claims take part.
type Options struct {
	// IncludeInactive also considers inactive interfaces.
	IncludeInactive bool
}

// collectClaims returns the claims of the network in interface order.
func collectClaims(network *model.Network, opts Options) []Claim {
	var claims []Claim
	for _, id := range network.InterfaceIDs() {
		iface, _ := network.Interface(id)
		if !iface.IsActive() && !opts.IncludeInactive {
			continue
		}
		for _, p := range iface.ConcretePrefixes() {
			claims = append(claims, Claim{Interface: id, IP: p.Addr(), Protocol: ProtocolStatic, Active: iface.IsActive()})
		}
		claims = append(claims, groupClaims(id, iface, ProtocolVRRP, iface.VRRPGroups)...)
		claims = append(claims, groupClaims(id, iface, ProtocolHSRP, iface.HSRPGroups)...)
	}
	return claims
}

func groupClaims(id model.InterfaceID, iface *model.Interface, protocol Protocol, groups []model.RedundancyGroup) []Claim {
	var claims []Claim
	primary, _ := iface.PrimaryAddress()
	for _, g := range groups {
		source := primary
		if addrs := model.ParseAddrs([]string{g.SourceAddress}); len(addrs) == 1 {
			source = addrs[0]
		}
		for _, vip := range model.ParseAddrs(g.VirtualAddresses) {
			claims = append(claims, Claim{
				Interface: id,
				IP:        vip,
				Protocol:  protocol,
				GroupID:   g.ID,
				Priority:  g.Priority,
				Source:    source,
				Active:    iface.IsActive(),
			})
		}
	}
	return claims
}
