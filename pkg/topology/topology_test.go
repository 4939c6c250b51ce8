package topology

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/telekom/das-schiff-network-topology/pkg/config"
	"github.com/telekom/das-schiff-network-topology/pkg/diagnostics"
	mock_diagnostics "github.com/telekom/das-schiff-network-topology/pkg/diagnostics/mock"
	"github.com/telekom/das-schiff-network-topology/pkg/layer2"
	"github.com/telekom/das-schiff-network-topology/pkg/layer3"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"github.com/telekom/das-schiff-network-topology/pkg/vlan"
	"go.uber.org/mock/gomock"
	"k8s.io/utils/ptr"
)

func TestTopology(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t,
		"Topology Suite")
}

var (
	sw1Eth1   = model.NewInterfaceID("sw1", "Ethernet1")
	sw1Eth2   = model.NewInterfaceID("sw1", "Ethernet2")
	sw1Vlan10 = model.NewInterfaceID("sw1", "Vlan10")
	r1Eth1    = model.NewInterfaceID("r1", "Ethernet1")
	r1Sub10   = model.NewInterfaceID("r1", "Ethernet1.10")
	r1Eth2    = model.NewInterfaceID("r1", "Ethernet2")
	r1Eth3    = model.NewInterfaceID("r1", "Ethernet3")
	r2Sub20   = model.NewInterfaceID("r2", "Ethernet1.20")
	r2Eth2    = model.NewInterfaceID("r2", "Ethernet2")
	r2Eth3    = model.NewInterfaceID("r2", "Ethernet3")
	r3Eth1    = model.NewInterfaceID("r3", "Ethernet1")
)

func wire(h1, i1, h2, i2 string) model.Layer1EdgeSpec {
	return model.Layer1EdgeSpec{
		Node1: model.InterfaceRef{Hostname: h1, Interface: i1},
		Node2: model.InterfaceRef{Hostname: h2, Interface: i2},
	}
}

func bind(parent string) []model.Dependency {
	return []model.Dependency{{Interface: parent, Type: model.DependencyBind}}
}

// campus is a switch with an IRB, two routers attached by tagged
// subinterfaces, a numbered and an unnumbered router-to-router link and a
// third router without any known wiring.
func campus() *model.Snapshot {
	return &model.Snapshot{
		Devices: []*model.Device{
			{
				Hostname: "SW1",
				Interfaces: []*model.Interface{
					{Name: "Ethernet1", Kind: model.KindPhysical, Switchport: model.SwitchportTrunk, AllowedVLANs: "10,20"},
					{Name: "Ethernet2", Kind: model.KindPhysical, Switchport: model.SwitchportTrunk, AllowedVLANs: "10,20"},
					{
						Name: "Vlan10", Kind: model.KindVLAN, VLAN: ptr.To(10), Addresses: []string{"10.0.10.1/24"},
						VRRPGroups: []model.RedundancyGroup{{ID: 1, Priority: 200, VirtualAddresses: []string{"10.0.10.254"}}},
					},
				},
			},
			{
				Hostname: "r1",
				Interfaces: []*model.Interface{
					{Name: "Ethernet1", Kind: model.KindPhysical},
					{
						Name: "Ethernet1.10", Kind: model.KindSubinterface, EncapsulationVLAN: ptr.To(10), Dependencies: bind("Ethernet1"),
						Addresses:  []string{"10.0.10.2/24"},
						VRRPGroups: []model.RedundancyGroup{{ID: 1, Priority: 100, VirtualAddresses: []string{"10.0.10.254"}}},
					},
					{Name: "Ethernet2", Kind: model.KindPhysical, Addresses: []string{"192.168.0.1/31"}},
					{Name: "Ethernet3", Kind: model.KindPhysical, LinkLocalAddresses: []string{"fe80::1/64"}},
					{Name: "Ethernet4", Kind: model.KindPhysical, LinkLocalAddresses: []string{"fe80::9/64"}},
				},
			},
			{
				Hostname: "r2",
				Interfaces: []*model.Interface{
					{Name: "Ethernet1", Kind: model.KindPhysical},
					{Name: "Ethernet1.20", Kind: model.KindSubinterface, EncapsulationVLAN: ptr.To(20), Dependencies: bind("Ethernet1"), Addresses: []string{"10.0.20.2/24"}},
					{Name: "Ethernet2", Kind: model.KindPhysical, Addresses: []string{"192.168.0.0/31"}},
					{Name: "Ethernet3", Kind: model.KindPhysical, LinkLocalAddresses: []string{"fe80::2/64"}},
					{Name: "Ethernet5", Kind: model.KindPhysical, Inactive: true},
				},
			},
			{
				Hostname: "r3",
				Interfaces: []*model.Interface{
					{Name: "Ethernet1", Kind: model.KindPhysical, Addresses: []string{"10.0.10.3/24"}},
				},
			},
		},
		Layer1: []model.Layer1EdgeSpec{
			wire("sw1", "ethernet1", "r1", "Ethernet1"),
			wire("sw1", "Ethernet2", "r2", "Ethernet1"),
			wire("r1", "Ethernet2", "r2", "Ethernet2"),
			wire("r1", "Ethernet3", "r2", "Ethernet3"),
			wire("sw1", "Ethernet7", "r2", "Ethernet5"),
		},
	}
}

func newTestEngine(sink diagnostics.Sink) *Engine {
	cfg := config.Default()
	cfg.Parallelism = 2
	return NewEngine(cfg, sink, logr.Discard())
}

var _ = Describe("Engine", func() {
	var (
		collector *diagnostics.Collector
		result    *Result
	)

	BeforeEach(func() {
		collector = diagnostics.NewCollector()
		var err error
		result, err = newTestEngine(collector).Compute(context.Background(), campus())
		Expect(err).ToNot(HaveOccurred())
	})

	Context("with known wiring", func() {
		It("uses the hybrid adjacencies", func() {
			Expect(result.Layer2).ToNot(BeNil())
			Expect(result.Adjacencies).To(BeAssignableToTypeOf(&layer3.Hybrid{}))
		})
		It("splits the network-wide VLAN partition", func() {
			Expect(result.Partition.Ranges()).To(Equal([]vlan.Range{vlan.Singleton(10), vlan.Singleton(20)}))
		})
		It("bridges a tagged subinterface through the trunk to the IRB", func() {
			Expect(result.Layer2.InSameBroadcastDomain(layer2.FromID(sw1Vlan10), layer2.FromID(r1Sub10))).To(BeTrue())
			sw1Eth2VLAN10 := layer2.NewVLANNode(sw1Eth2.Hostname, sw1Eth2.Interface, vlan.Singleton(10))
			Expect(result.Layer2.InSameBroadcastDomain(layer2.FromID(sw1Vlan10), sw1Eth2VLAN10)).To(BeTrue())
		})
		It("keeps different VLANs apart", func() {
			Expect(result.Layer2.InSameBroadcastDomain(layer2.FromID(r2Sub20), layer2.FromID(r1Sub10))).To(BeFalse())
			sw1Eth1VLAN20 := layer2.NewVLANNode(sw1Eth1.Hostname, sw1Eth1.Interface, vlan.Singleton(20))
			Expect(result.Layer2.InSameBroadcastDomain(layer2.FromID(r2Sub20), sw1Eth1VLAN20)).To(BeTrue())
		})
		It("does not bridge the untagged parent into the tagged VLAN", func() {
			Expect(result.Layer2.InSameBroadcastDomain(layer2.FromID(r1Eth1), layer2.FromID(r1Sub10))).To(BeFalse())
		})
		It("computes layer3 edges of numbered and unnumbered interfaces", func() {
			expected := []layer3.Edge{
				layer3.NewEdge(sw1Vlan10, r1Sub10),
				layer3.NewEdge(sw1Vlan10, r3Eth1),
				layer3.NewEdge(r1Sub10, r3Eth1),
				layer3.NewEdge(r1Eth2, r2Eth2),
				layer3.NewEdge(r1Eth3, r2Eth3),
			}
			edges := []layer3.Edge{}
			for _, e := range expected {
				edges = append(edges, e, e.Reverse())
			}
			Expect(result.Layer3.Edges()).To(ConsistOf(edges))
		})
		It("elects the VRRP master in the shared broadcast domain", func() {
			vip := netip.MustParseAddr("10.0.10.254")
			Expect(result.Owners.Owns(sw1Vlan10, vip)).To(BeTrue())
			Expect(result.Owners.Owns(r1Sub10, vip)).To(BeFalse())
			Expect(result.Owners.Elections()).To(HaveLen(1))
			Expect(result.Owners.Elections()[0].Candidates[1].Reason).To(Equal("priority 100 lower than 200"))
		})
		It("reports dropped wiring and unpaired unnumbered interfaces", func() {
			Expect(collector.Count(diagnostics.MissingInterface)).To(Equal(1))
			Expect(collector.Count(diagnostics.InactiveInterface)).To(Equal(1))
			Expect(collector.Count(diagnostics.AmbiguousPairing)).To(Equal(1))
			Expect(collector.Anomalies()).To(ContainElement(diagnostics.Anomaly{
				Kind: diagnostics.AmbiguousPairing, Hostname: "r1", Interface: "Ethernet4",
				Message: "no unique point-to-point peer for unnumbered interface",
			}))
		})
	})

	Context("without wiring", func() {
		It("assumes a single broadcast domain", func() {
			snapshot := campus()
			snapshot.Layer1 = nil
			result, err := newTestEngine(nil).Compute(context.Background(), snapshot)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Layer2).To(BeNil())
			Expect(result.Adjacencies).To(Equal(layer3.Global()))
			Expect(result.Layer3.HasEdge(layer3.NewEdge(r2Sub20, r1Sub10))).To(BeFalse())
			Expect(result.Layer3.HasEdge(layer3.NewEdge(sw1Vlan10, r1Sub10))).To(BeTrue())
			Expect(result.Layer3.HasEdge(layer3.NewEdge(r1Eth3, r2Eth3))).To(BeFalse())
		})
		It("reports validation problems to the sink", func() {
			ctrl := gomock.NewController(GinkgoT())
			sink := mock_diagnostics.NewMockSink(ctrl)
			sink.EXPECT().Record(diagnostics.Anomaly{
				Kind: diagnostics.InvalidAddress, Hostname: "r3", Interface: "Ethernet1",
				Message: `invalid address "10.0.10.300/24"`,
			}).Times(1)

			snapshot := campus()
			snapshot.Layer1 = nil
			snapshot.Devices[3].Interfaces[0].Addresses = []string{"10.0.10.300/24"}
			_, err := newTestEngine(sink).Compute(context.Background(), snapshot)
			Expect(err).ToNot(HaveOccurred())
		})
	})

	It("stops when the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestEngine(nil).Compute(ctx, campus())
		Expect(err).To(MatchError(context.Canceled))
	})

	It("computes with a zero config", func() {
		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			_, err := NewEngine(&config.Config{}, nil, logr.Discard()).Compute(context.Background(), campus())
			done <- err
		}()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})

	It("reports a native VLAN missing from the allowed list", func() {
		snapshot := campus()
		snapshot.Devices[0].Interfaces[0].NativeVLAN = ptr.To(30)
		_, err := newTestEngine(collector).Compute(context.Background(), snapshot)
		Expect(err).ToNot(HaveOccurred())
		Expect(collector.Count(diagnostics.NativeVLANNotAllowed)).To(Equal(1))
	})
})

var _ = Describe("Persistence", func() {
	var (
		network *model.Network
		result  *Result
	)

	BeforeEach(func() {
		snapshot := campus()
		network = model.NewNetwork(snapshot.Devices)
		var err error
		result, err = newTestEngine(nil).Compute(context.Background(), snapshot)
		Expect(err).ToNot(HaveOccurred())
	})

	It("round-trips a result", func() {
		data, err := Marshal(result)
		Expect(err).ToNot(HaveOccurred())

		decoded, err := Unmarshal(data, network)
		Expect(err).ToNot(HaveOccurred())
		Expect(decoded.Layer1.ActiveLogical().Edges()).To(Equal(result.Layer1.ActiveLogical().Edges()))
		Expect(decoded.Layer2.Domains()).To(Equal(result.Layer2.Domains()))
		Expect(decoded.Layer3.Edges()).To(Equal(result.Layer3.Edges()))
		Expect(decoded.VXLAN.Edges()).To(Equal(result.VXLAN.Edges()))
		Expect(decoded.Partition.Entries()).To(Equal(result.Partition.Entries()))
		Expect(decoded.Owners.Elections()).To(Equal(result.Owners.Elections()))
		Expect(decoded.Adjacencies.InSamePointToPointDomain(r1Eth3, r2Eth3)).To(BeTrue())
	})

	It("writes and reads files", func() {
		path := GinkgoT().TempDir() + "/result.yaml"
		Expect(WriteFile(path, result)).To(Succeed())
		decoded, err := ReadFile(path, network)
		Expect(err).ToNot(HaveOccurred())
		Expect(decoded.Layer3.Edges()).To(Equal(result.Layer3.Edges()))
	})

	It("rejects overlapping partition ranges", func() {
		data := []byte(`
partition:
- vlans: {start: 10, end: 21}
  interfaces: [{hostname: a, interface: e1}]
- vlans: {start: 15, end: 31}
  interfaces: [{hostname: b, interface: e1}]
`)
		_, err := Unmarshal(data, network)
		Expect(err).To(MatchError(ContainSubstring("vlan ranges overlap")))
	})

	It("rejects overlapping broadcast domains", func() {
		data := []byte(`
layer2:
  domains:
  - [{hostname: a, interface: e1}, {hostname: b, interface: e1}]
  - [{hostname: b, interface: e1}]
`)
		_, err := Unmarshal(data, network)
		Expect(err).To(MatchError(ContainSubstring("broadcast domains overlap")))
	})
})
