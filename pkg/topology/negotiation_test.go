package topology

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/telekom/das-schiff-network-topology/pkg/layer2"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"github.com/telekom/das-schiff-network-topology/pkg/vlan"
	"k8s.io/utils/ptr"
)

var _ = Describe("negotiate", func() {
	a := model.NewInterfaceID("a", "Ethernet1")
	b := model.NewInterfaceID("b", "Ethernet1")

	var partition *vlan.IntervalMap[model.InterfaceID]
	BeforeEach(func() {
		partition = vlan.NewIntervalMap[model.InterfaceID]()
		partition.AddRange(vlan.Closed(1, 100), a)
		partition.AddRange(vlan.Closed(50, 200), b)
		for _, v := range []int{1, 2, 10, 60} {
			partition.AddRange(vlan.Singleton(v), a)
		}
	})

	newTrunk := func(id model.InterfaceID, allowed string, native *int) *trunk {
		space, err := vlan.ParseSpace(allowed)
		Expect(err).ToNot(HaveOccurred())
		return &trunk{iface: id, allowed: space, native: native, slices: partition.RangesWithin(space), partition: partition}
	}
	newTagged := func(id model.InterfaceID, tag int) *taggedSubif {
		slice, ok := partition.GetRange(tag)
		Expect(ok).To(BeTrue())
		return &taggedSubif{iface: id, tag: tag, slice: slice}
	}
	newAccess := func(id model.InterfaceID, v *int) *access {
		ep := &access{iface: id, vlan: v}
		if v != nil {
			ep.slice, _ = partition.GetRange(*v)
		}
		return ep
	}
	node := func(id model.InterfaceID, r vlan.Range) layer2.Node {
		return layer2.NewVLANNode(id.Hostname, id.Interface, r)
	}

	Context("trunk to trunk", func() {
		It("links every shared slice and the native VLANs", func() {
			edges := negotiate(newTrunk(a, "1-100", ptr.To(1)), newTrunk(b, "50-200", ptr.To(60)))
			Expect(edges).To(ConsistOf(
				layer2.NewEdge(node(a, vlan.Closed(50, 59)), node(b, vlan.Closed(50, 59))),
				layer2.NewEdge(node(a, vlan.Singleton(60)), node(b, vlan.Singleton(60))),
				layer2.NewEdge(node(a, vlan.Closed(61, 100)), node(b, vlan.Closed(61, 100))),
				layer2.NewEdge(node(a, vlan.Singleton(1)), node(b, vlan.Singleton(60))),
			))
		})
		It("adds the native edge when both natives are the same VLAN", func() {
			edges := negotiate(newTrunk(a, "1-100", ptr.To(60)), newTrunk(b, "50-200", ptr.To(60)))
			Expect(edges).To(ContainElement(layer2.NewEdge(node(a, vlan.Singleton(60)), node(b, vlan.Singleton(60)))))
			Expect(edges).To(HaveLen(4))
		})
		It("drops the native edge when one native is not allowed", func() {
			edges := negotiate(newTrunk(a, "1-100", ptr.To(10)), newTrunk(b, "50-200", ptr.To(10)))
			Expect(edges).To(HaveLen(3))
		})
	})

	Context("trunk to tagged subinterface", func() {
		It("links the tag slice to the subinterface", func() {
			edges := negotiate(newTrunk(a, "1-100", ptr.To(1)), newTagged(b, 10))
			Expect(edges).To(Equal([]layer2.Edge{layer2.NewEdge(node(a, vlan.Singleton(10)), layer2.FromID(b))}))
		})
		It("is symmetric", func() {
			edges := negotiate(newTagged(b, 10), newTrunk(a, "1-100", ptr.To(1)))
			Expect(edges).To(Equal([]layer2.Edge{layer2.NewEdge(layer2.FromID(b), node(a, vlan.Singleton(10)))}))
		})
		It("ignores a tag that is not allowed", func() {
			Expect(negotiate(newTrunk(a, "1-5", nil), newTagged(b, 10))).To(BeEmpty())
		})
		It("ignores a tag equal to the native VLAN", func() {
			Expect(negotiate(newTrunk(a, "1-100", ptr.To(10)), newTagged(b, 10))).To(BeEmpty())
		})
	})

	Context("trunk to access or plain", func() {
		It("links the native slice to the access VLAN", func() {
			edges := negotiate(newTrunk(a, "1-100", ptr.To(2)), newAccess(b, ptr.To(10)))
			Expect(edges).To(Equal([]layer2.Edge{layer2.NewEdge(node(a, vlan.Singleton(2)), node(b, vlan.Singleton(10)))}))
		})
		It("links the native slice to the untagged plain interface", func() {
			edges := negotiate(&plain{iface: b}, newTrunk(a, "1-100", ptr.To(2)))
			Expect(edges).To(Equal([]layer2.Edge{layer2.NewEdge(layer2.FromID(b), node(a, vlan.Singleton(2)))}))
		})
		It("needs an allowed native VLAN", func() {
			Expect(negotiate(newTrunk(a, "3-100", ptr.To(2)), newAccess(b, ptr.To(10)))).To(BeEmpty())
			Expect(negotiate(newTrunk(a, "1-100", nil), &plain{iface: b})).To(BeEmpty())
		})
		It("needs an access VLAN", func() {
			Expect(negotiate(newAccess(b, nil), newTrunk(a, "1-100", ptr.To(2)))).To(BeEmpty())
		})
	})

	Context("tagged subinterfaces", func() {
		It("links equal tags", func() {
			edges := negotiate(newTagged(a, 10), newTagged(b, 10))
			Expect(edges).To(Equal([]layer2.Edge{layer2.NewEdge(layer2.FromID(a), layer2.FromID(b))}))
		})
		It("ignores different tags", func() {
			Expect(negotiate(newTagged(a, 10), newTagged(b, 60))).To(BeEmpty())
		})
		It("never links to access or plain interfaces", func() {
			Expect(negotiate(newTagged(a, 10), newAccess(b, ptr.To(10)))).To(BeEmpty())
			Expect(negotiate(newAccess(b, ptr.To(10)), newTagged(a, 10))).To(BeEmpty())
			Expect(negotiate(newTagged(a, 10), &plain{iface: b})).To(BeEmpty())
			Expect(negotiate(&plain{iface: b}, newTagged(a, 10))).To(BeEmpty())
		})
	})

	Context("access and plain", func() {
		It("links access VLAN slices", func() {
			edges := negotiate(newAccess(a, ptr.To(10)), newAccess(b, ptr.To(60)))
			Expect(edges).To(Equal([]layer2.Edge{layer2.NewEdge(node(a, vlan.Singleton(10)), node(b, vlan.Singleton(60)))}))
		})
		It("links an access VLAN to an untagged interface in both orders", func() {
			Expect(negotiate(newAccess(a, ptr.To(10)), &plain{iface: b})).To(Equal(
				[]layer2.Edge{layer2.NewEdge(node(a, vlan.Singleton(10)), layer2.FromID(b))}))
			Expect(negotiate(&plain{iface: b}, newAccess(a, ptr.To(10)))).To(Equal(
				[]layer2.Edge{layer2.NewEdge(layer2.FromID(b), node(a, vlan.Singleton(10)))}))
		})
		It("links two plain interfaces untagged", func() {
			Expect(negotiate(&plain{iface: a}, &plain{iface: b})).To(Equal(
				[]layer2.Edge{layer2.NewEdge(layer2.FromID(a), layer2.FromID(b))}))
		})
		It("bridges nothing from an access port without VLAN", func() {
			Expect(negotiate(newAccess(a, nil), newAccess(b, ptr.To(10)))).To(BeEmpty())
			Expect(negotiate(newAccess(a, nil), &plain{iface: b})).To(BeEmpty())
		})
	})
})
