package topology

import (
	"context"
	"fmt"
	"sync"

	"github.com/telekom/das-schiff-network-topology/pkg/diagnostics"
	"github.com/telekom/das-schiff-network-topology/pkg/layer1"
	"github.com/telekom/das-schiff-network-topology/pkg/layer2"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"github.com/telekom/das-schiff-network-topology/pkg/vlan"
	"github.com/telekom/das-schiff-network-topology/pkg/vxlan"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// bridged reports whether iface takes part in layer-2 negotiation. Aggregate
// members are represented by their aggregate.
func bridged(iface *model.Interface) bool {
	_, member := iface.Parent(model.DependencyAggregate)
	return iface.IsActive() && !member
}

func vniID(hostname string, v *model.VNI) model.InterfaceID {
	return model.NewInterfaceID(hostname, v.InterfaceName())
}

// buildPartition splits every VLAN range used anywhere in the network into a
// single disjoint partition, so slices of different devices line up.
func buildPartition(network *model.Network) *vlan.IntervalMap[model.InterfaceID] {
	partition := vlan.NewIntervalMap[model.InterfaceID]()
	single := func(id model.InterfaceID, v *int) {
		if v != nil {
			partition.AddRange(vlan.Singleton(*v), id)
		}
	}
	for _, id := range network.InterfaceIDs() {
		iface, _ := network.Interface(id)
		switch iface.Switchport {
		case model.SwitchportTrunk:
			if allowed, err := iface.AllowedVLANSpace(); err == nil {
				for _, r := range allowed.Ranges() {
					partition.AddRange(r, id)
				}
			}
			single(id, iface.NativeVLAN)
		case model.SwitchportAccess:
			single(id, iface.AccessVLAN)
		case model.SwitchportNone:
			single(id, iface.EncapsulationVLAN)
		}
		if iface.Kind == model.KindVLAN {
			single(id, iface.VLAN)
		}
	}
	for _, host := range network.Hostnames() {
		d, _ := network.Device(host)
		for i := range d.VNIs {
			single(vniID(host, &d.VNIs[i]), d.VNIs[i].VLAN)
		}
	}
	return partition
}

// classify turns an interface configuration into its negotiation variant.
func classify(id model.InterfaceID, iface *model.Interface, partition *vlan.IntervalMap[model.InterfaceID], sink diagnostics.Sink) endpoint {
	switch {
	case iface.Switchport == model.SwitchportTrunk:
		// Unparsable lists are reported by snapshot validation and allow nothing.
		allowed, _ := iface.AllowedVLANSpace()
		if iface.NativeVLAN != nil && !allowed.Contains(*iface.NativeVLAN) {
			sink.Record(diagnostics.Anomaly{
				Kind: diagnostics.NativeVLANNotAllowed, Hostname: id.Hostname, Interface: id.Interface,
				Message: fmt.Sprintf("native VLAN %d is not in allowed VLANs %s", *iface.NativeVLAN, allowed),
			})
		}
		return &trunk{
			iface:     id,
			allowed:   allowed,
			native:    iface.NativeVLAN,
			slices:    partition.RangesWithin(allowed),
			partition: partition,
		}
	case iface.Switchport == model.SwitchportAccess:
		a := &access{iface: id, vlan: iface.AccessVLAN}
		if a.vlan != nil {
			a.slice, _ = partition.GetRange(*a.vlan)
		}
		return a
	case iface.EncapsulationVLAN != nil:
		slice, _ := partition.GetRange(*iface.EncapsulationVLAN)
		return &taggedSubif{iface: id, tag: *iface.EncapsulationVLAN, slice: slice}
	default:
		return &plain{iface: id}
	}
}

// deviceSlices holds the per-device results computed in parallel.
type deviceSlices struct {
	endpoints map[model.InterfaceID]endpoint
	selfEdges []layer2.Edge
}

// computeDevice classifies the interfaces of one device and links every node
// carrying the same partition slice with a spanning chain.
func computeDevice(network *model.Network, host string, partition *vlan.IntervalMap[model.InterfaceID], sink diagnostics.Sink) *deviceSlices {
	result := &deviceSlices{endpoints: map[model.InterfaceID]endpoint{}}
	members := map[vlan.Range][]layer2.Node{}
	addMember := func(r vlan.Range, ok bool, n layer2.Node) {
		if ok {
			members[r] = append(members[r], n)
		}
	}

	for _, id := range network.DeviceInterfaceIDs(host) {
		iface, _ := network.Interface(id)
		if !bridged(iface) {
			continue
		}
		ep := classify(id, iface, partition, sink)
		result.endpoints[id] = ep
		switch ep := ep.(type) {
		case *trunk:
			for _, r := range ep.slices {
				addMember(r, true, ep.node(r))
			}
		case *access:
			n, ok := ep.node()
			addMember(ep.slice, ok, n)
		}
		if iface.Kind == model.KindVLAN && iface.VLAN != nil {
			r, ok := partition.GetRange(*iface.VLAN)
			addMember(r, ok, layer2.FromID(id))
		}
	}
	d, _ := network.Device(host)
	for i := range d.VNIs {
		if d.VNIs[i].VLAN == nil {
			continue
		}
		r, ok := partition.GetRange(*d.VNIs[i].VLAN)
		addMember(r, ok, layer2.FromID(vniID(host, &d.VNIs[i])))
	}

	for _, nodes := range members {
		slices.SortFunc(nodes, layer2.Node.Compare)
		for i := 1; i < len(nodes); i++ {
			result.selfEdges = append(result.selfEdges, layer2.NewEdge(nodes[i-1], nodes[i]))
		}
	}
	return result
}

// sides returns id and its active bind children.
func sides(network *model.Network, id model.InterfaceID) []model.InterfaceID {
	result := []model.InterfaceID{id}
	for _, child := range network.Children(id) {
		if network.IsActive(child) {
			result = append(result, child)
		}
	}
	return result
}

// linkEdges negotiates every parent/child combination of both ends of a link.
func linkEdges(network *model.Network, e layer1.Edge, endpoints map[model.InterfaceID]endpoint) []layer2.Edge {
	id1, ok1 := e.Node1.ID()
	id2, ok2 := e.Node2.ID()
	if !ok1 || !ok2 {
		return nil
	}
	var edges []layer2.Edge
	for _, s1 := range sides(network, id1) {
		ep1, ok := endpoints[s1]
		if !ok {
			continue
		}
		for _, s2 := range sides(network, id2) {
			ep2, ok := endpoints[s2]
			if !ok {
				continue
			}
			edges = append(edges, negotiate(ep1, ep2)...)
		}
	}
	return edges
}

// edgeCollector gathers edges produced by concurrent workers.
type edgeCollector struct {
	mu    sync.Mutex
	edges []layer2.Edge
}

func (c *edgeCollector) add(edges ...layer2.Edge) {
	if len(edges) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edges = append(c.edges, edges...)
}

// computeLayer2 derives the broadcast domains. Per-device classification and
// per-link negotiation run in parallel; the union-find runs on this goroutine.
func computeLayer2(
	ctx context.Context,
	network *model.Network,
	activeLogical *layer1.Topology,
	vx *vxlan.Topology,
	partition *vlan.IntervalMap[model.InterfaceID],
	parallelism int,
	sink diagnostics.Sink,
) (*layer2.Topology, error) {
	hosts := network.Hostnames()
	perDevice := make([]*deviceSlices, len(hosts))
	collector := &edgeCollector{}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelism)
	for i, host := range hosts {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err //nolint:wrapcheck
			}
			perDevice[i] = computeDevice(network, host, partition, sink)
			collector.add(perDevice[i].selfEdges...)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("error computing device VLAN slices: %w", err)
	}

	endpoints := map[model.InterfaceID]endpoint{}
	for _, d := range perDevice {
		for id, ep := range d.endpoints {
			endpoints[id] = ep
		}
	}

	group, groupCtx = errgroup.WithContext(ctx)
	group.SetLimit(parallelism)
	for _, e := range activeLogical.Edges() {
		if e.Node1.Compare(e.Node2) > 0 && activeLogical.HasEdge(e.Reverse()) {
			continue
		}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err //nolint:wrapcheck
			}
			collector.add(linkEdges(network, e, endpoints)...)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("error negotiating layer2 edges: %w", err)
	}
	collector.add(vx.Layer2Edges()...)

	builder := layer2.NewBuilder()
	for _, e := range collector.edges {
		builder.AddEdge(e)
	}
	return builder.Build(), nil
}
