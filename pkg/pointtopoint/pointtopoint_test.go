package pointtopoint

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/telekom/das-schiff-network-topology/pkg/layer1"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/ptr"
)

func TestPointToPoint(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t,
		"PointToPoint Suite")
}

var (
	a = layer1.NewNode("a", "Ethernet1")
	b = layer1.NewNode("b", "Ethernet1")
	c = layer1.NewNode("c", "Ethernet1")
	d = layer1.NewNode("d", "Ethernet1")
)

var _ = Describe("PhysicalPointToPoint", func() {
	It("maps a single edge in both directions", func() {
		result := PhysicalPointToPoint(layer1.NewTopology(layer1.NewEdge(a, b)))
		Expect(result).To(Equal(map[layer1.Node]layer1.Node{a: b, b: a}))
	})
	It("treats an edge given in both directions as one link", func() {
		result := PhysicalPointToPoint(layer1.NewTopology(layer1.NewEdge(a, b), layer1.NewEdge(b, a)))
		Expect(result).To(Equal(map[layer1.Node]layer1.Node{a: b, b: a}))
	})
	It("drops every node of a chain", func() {
		result := PhysicalPointToPoint(layer1.NewTopology(layer1.NewEdge(a, b), layer1.NewEdge(b, c)))
		Expect(result).To(BeEmpty())
	})
	It("keeps unrelated links next to a chain", func() {
		result := PhysicalPointToPoint(layer1.NewTopology(
			layer1.NewEdge(a, b), layer1.NewEdge(b, c), layer1.NewEdge(d, layer1.NewNode("e", "Ethernet1")),
		))
		Expect(result).To(HaveLen(2))
		Expect(result).To(HaveKeyWithValue(d, layer1.NewNode("e", "Ethernet1")))
	})
	It("disqualifies a node linked to the missing sentinel", func() {
		result := PhysicalPointToPoint(layer1.NewTopology(layer1.NewEdge(a, layer1.Missing)))
		Expect(result).To(BeEmpty())
	})
	It("disqualifies the whole link when one end also touches the sentinel", func() {
		result := PhysicalPointToPoint(layer1.NewTopology(
			layer1.NewEdge(a, b), layer1.NewEdge(layer1.Missing, b),
		))
		Expect(result).To(BeEmpty())
	})
})

func testNetwork() *model.Network {
	return model.NewNetwork([]*model.Device{{
		Hostname: "a",
		Interfaces: []*model.Interface{
			{Name: "Ethernet1", Kind: model.KindPhysical},
			{Name: "Ethernet1.100", Kind: model.KindSubinterface, EncapsulationVLAN: ptr.To(100),
				Dependencies: []model.Dependency{{Interface: "Ethernet1", Type: model.DependencyBind}}},
			{Name: "Ethernet2", Kind: model.KindPhysical, Inactive: true},
			{Name: "Ethernet2.5", Kind: model.KindSubinterface,
				Dependencies: []model.Dependency{{Interface: "Ethernet2", Type: model.DependencyBind}}},
			{Name: "Ethernet3", Kind: model.KindPhysical, Switchport: model.SwitchportTrunk},
			{Name: "Ethernet4", Kind: model.KindPhysical,
				Dependencies: []model.Dependency{{Interface: "Port-Channel1", Type: model.DependencyAggregate}}},
			{Name: "Ethernet5", Kind: model.KindSubinterface,
				Dependencies: []model.Dependency{{Interface: "Ethernet9", Type: model.DependencyBind}}},
			{Name: "Port-Channel1", Kind: model.KindAggregated},
			{Name: "Port-Channel1.7", Kind: model.KindAggregateChild,
				Dependencies: []model.Dependency{{Interface: "Port-Channel1", Type: model.DependencyBind}}},
			{Name: "Vlan10", Kind: model.KindVLAN, VLAN: ptr.To(10)},
			{Name: "Loopback0", Kind: model.KindLoopback},
		},
	}})
}

var _ = Describe("InterfacesToParent", func() {
	id := func(name string) model.InterfaceID { return model.NewInterfaceID("a", name) }
	parents := InterfacesToParent(testNetwork())

	It("maps physical and aggregate interfaces to themselves", func() {
		Expect(parents).To(HaveKeyWithValue(id("Ethernet1"), id("Ethernet1")))
		Expect(parents).To(HaveKeyWithValue(id("Port-Channel1"), id("Port-Channel1")))
	})
	It("maps subinterfaces to their parent", func() {
		Expect(parents).To(HaveKeyWithValue(id("Ethernet1.100"), id("Ethernet1")))
	})
	It("maps aggregate children to the aggregate", func() {
		Expect(parents).To(HaveKeyWithValue(id("Port-Channel1.7"), id("Port-Channel1")))
	})
	It("excludes inactive and switchport interfaces", func() {
		Expect(parents).ToNot(HaveKey(id("Ethernet2")))
		Expect(parents).ToNot(HaveKey(id("Ethernet3")))
	})
	It("omits interfaces whose parent is inactive or absent", func() {
		Expect(parents).ToNot(HaveKey(id("Ethernet2.5")))
		Expect(parents).ToNot(HaveKey(id("Ethernet5")))
	})
	It("never maps aggregate members or virtual interfaces", func() {
		Expect(parents).ToNot(HaveKey(id("Ethernet4")))
		Expect(parents).ToNot(HaveKey(id("Vlan10")))
		Expect(parents).ToNot(HaveKey(id("Loopback0")))
	})
	It("reverses into a multimap", func() {
		reverse := Reverse(parents)
		Expect(reverse[id("Ethernet1")]).To(Equal(sets.New(id("Ethernet1"), id("Ethernet1.100"))))
		Expect(reverse[id("Port-Channel1")]).To(Equal(sets.New(id("Port-Channel1"), id("Port-Channel1.7"))))
	})
})

var _ = Describe("Compute", func() {
	It("disqualifies links touching an unconfigured interface", func() {
		network := model.NewNetwork([]*model.Device{
			{Hostname: "a", Interfaces: []*model.Interface{{Name: "Ethernet1", Kind: model.KindPhysical}}},
			{Hostname: "b", Interfaces: []*model.Interface{{Name: "Ethernet1", Kind: model.KindPhysical}}},
			{Hostname: "c", Interfaces: []*model.Interface{{Name: "Ethernet1", Kind: model.KindPhysical}}},
		})
		l1 := layer1.NewTopologies(network, layer1.NewTopology(
			layer1.NewEdge(a, b), layer1.NewEdge(a, layer1.NewNode("c", "Ethernet9")),
		), layer1.NewTopology())

		maps := Compute(network, l1.Logical())
		Expect(maps.Physical).To(BeEmpty())
		Expect(maps.InterfaceParents).To(HaveKeyWithValue(model.NewInterfaceID("a", "Ethernet1"), model.NewInterfaceID("a", "Ethernet1")))
		Expect(maps.ParentInterfaces).To(HaveLen(3))
	})
	It("pairs a clean link", func() {
		network := model.NewNetwork([]*model.Device{
			{Hostname: "a", Interfaces: []*model.Interface{{Name: "Ethernet1", Kind: model.KindPhysical}}},
			{Hostname: "b", Interfaces: []*model.Interface{{Name: "Ethernet1", Kind: model.KindPhysical}}},
		})
		l1 := layer1.NewTopologies(network, layer1.NewTopology(layer1.NewEdge(a, b)), layer1.NewTopology())
		Expect(Compute(network, l1.Logical()).Physical).To(Equal(map[layer1.Node]layer1.Node{a: b, b: a}))
	})
})
