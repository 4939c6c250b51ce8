package ipowner

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"

	"github.com/telekom/das-schiff-network-topology/pkg/layer3"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"golang.org/x/exp/slices"
	"k8s.io/apimachinery/pkg/util/sets"
)

// IPSpace is the sorted set of addresses owned by one interface.
type IPSpace struct {
	addrs []netip.Addr
}

func NewIPSpace(addrs ...netip.Addr) IPSpace {
	s := slices.Clone(addrs)
	slices.SortFunc(s, netip.Addr.Compare)
	return IPSpace{addrs: slices.Compact(s)}
}

func (s IPSpace) Contains(ip netip.Addr) bool {
	_, found := slices.BinarySearchFunc(s.addrs, ip, netip.Addr.Compare)
	return found
}

func (s IPSpace) Addrs() []netip.Addr {
	return append([]netip.Addr{}, s.addrs...)
}

func (s IPSpace) IsEmpty() bool {
	return len(s.addrs) == 0
}

func (s IPSpace) String() string {
	items := make([]string, len(s.addrs))
	for i, a := range s.addrs {
		items[i] = a.String()
	}
	return "{" + strings.Join(items, ", ") + "}"
}

// Owners is the immutable result of an ownership computation.
type Owners struct {
	owned     []Claim
	elections []Election

	byIP        map[netip.Addr]map[string]sets.Set[string]
	byInterface map[string]map[string]sets.Set[netip.Addr]
}

// Compute collects the claims of the network and elects the owners of every
// virtual address. Static addresses are owned by every interface claiming them.
func Compute(network *model.Network, adjacencies layer3.Adjacencies, opts Options) *Owners {
	if adjacencies == nil {
		adjacencies = layer3.Global()
	}
	claims := collectClaims(network, opts)

	var owned []Claim
	groups := map[groupKey][]Claim{}
	var order []groupKey
	for _, c := range claims {
		if c.Protocol == ProtocolStatic {
			owned = append(owned, c)
			continue
		}
		k := c.key()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	var elections []Election
	for _, k := range order {
		for _, e := range elect(groups[k], adjacencies) {
			elections = append(elections, e)
			owned = append(owned, e.Winner)
		}
	}
	return newOwners(owned, elections)
}

// ComputeBoth returns the owners among active interfaces and among all interfaces.
func ComputeBoth(network *model.Network, adjacencies layer3.Adjacencies) (active, all *Owners) {
	return Compute(network, adjacencies, Options{}), Compute(network, adjacencies, Options{IncludeInactive: true})
}

func newOwners(owned []Claim, elections []Election) *Owners {
	o := &Owners{
		owned:       owned,
		elections:   elections,
		byIP:        map[netip.Addr]map[string]sets.Set[string]{},
		byInterface: map[string]map[string]sets.Set[netip.Addr]{},
	}
	for _, c := range owned {
		host, iface := c.Interface.Hostname, c.Interface.Interface
		if _, ok := o.byIP[c.IP]; !ok {
			o.byIP[c.IP] = map[string]sets.Set[string]{}
		}
		if _, ok := o.byIP[c.IP][host]; !ok {
			o.byIP[c.IP][host] = sets.New[string]()
		}
		o.byIP[c.IP][host].Insert(iface)

		if _, ok := o.byInterface[host]; !ok {
			o.byInterface[host] = map[string]sets.Set[netip.Addr]{}
		}
		if _, ok := o.byInterface[host][iface]; !ok {
			o.byInterface[host][iface] = sets.New[netip.Addr]()
		}
		o.byInterface[host][iface].Insert(c.IP)
	}
	return o
}

// IPInterfaceOwners maps ip -> hostname -> owning interfaces.
func (o *Owners) IPInterfaceOwners() map[netip.Addr]map[string]sets.Set[string] {
	result := make(map[netip.Addr]map[string]sets.Set[string], len(o.byIP))
	for ip, hosts := range o.byIP {
		result[ip] = make(map[string]sets.Set[string], len(hosts))
		for host, ifaces := range hosts {
			result[ip][host] = ifaces.Clone()
		}
	}
	return result
}

// InterfaceOwners maps hostname -> interface -> owned addresses.
func (o *Owners) InterfaceOwners() map[string]map[string]sets.Set[netip.Addr] {
	result := make(map[string]map[string]sets.Set[netip.Addr], len(o.byInterface))
	for host, ifaces := range o.byInterface {
		result[host] = make(map[string]sets.Set[netip.Addr], len(ifaces))
		for iface, ips := range ifaces {
			result[host][iface] = ips.Clone()
		}
	}
	return result
}

// InterfaceIPSpaces maps hostname -> interface -> owned address space.
func (o *Owners) InterfaceIPSpaces() map[string]map[string]IPSpace {
	result := make(map[string]map[string]IPSpace, len(o.byInterface))
	for host, ifaces := range o.byInterface {
		result[host] = make(map[string]IPSpace, len(ifaces))
		for iface, ips := range ifaces {
			result[host][iface] = NewIPSpace(ips.UnsortedList()...)
		}
	}
	return result
}

// Elections returns the virtual address elections in claim order.
func (o *Owners) Elections() []Election {
	return append([]Election{}, o.elections...)
}

// Owns reports whether id owns ip.
func (o *Owners) Owns(id model.InterfaceID, ip netip.Addr) bool {
	ips, ok := o.byInterface[id.Hostname][id.Interface]
	return ok && ips.Has(ip)
}

type ownersDocument struct {
	Owned     []Claim    `json:"owned"`
	Elections []Election `json:"elections"`
}

func (o *Owners) MarshalJSON() ([]byte, error) {
	return json.Marshal(ownersDocument{Owned: o.owned, Elections: o.elections})
}

func (o *Owners) UnmarshalJSON(data []byte) error {
	var doc ownersDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error decoding ip owners: %w", err)
	}
	*o = *newOwners(doc.Owned, doc.Elections)
	return nil
}
