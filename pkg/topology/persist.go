package topology

import (
	"fmt"
	"os"

	"github.com/telekom/das-schiff-network-topology/pkg/helpers/maps"
	"github.com/telekom/das-schiff-network-topology/pkg/ipowner"
	"github.com/telekom/das-schiff-network-topology/pkg/layer1"
	"github.com/telekom/das-schiff-network-topology/pkg/layer2"
	"github.com/telekom/das-schiff-network-topology/pkg/layer3"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"github.com/telekom/das-schiff-network-topology/pkg/vlan"
	"github.com/telekom/das-schiff-network-topology/pkg/vxlan"
	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/yaml"
)

type partitionEntry struct {
	VLANs      vlan.Range          `json:"vlans"`
	Interfaces []model.InterfaceID `json:"interfaces"`
}

// resultDocument is the persisted form of a Result. Adjacencies are not
// stored; they are rebuilt from the stored topologies and the network.
type resultDocument struct {
	Layer1    *layer1.Topologies `json:"layer1"`
	Layer2    *layer2.Topology   `json:"layer2,omitempty"`
	Layer3    *layer3.Topology   `json:"layer3"`
	VXLAN     *vxlan.Topology    `json:"vxlan"`
	Partition []partitionEntry   `json:"partition"`
	Owners    *ipowner.Owners    `json:"owners"`
}

// Marshal encodes r as YAML.
func Marshal(r *Result) ([]byte, error) {
	doc := resultDocument{
		Layer1: r.Layer1,
		Layer2: r.Layer2,
		Layer3: r.Layer3,
		VXLAN:  r.VXLAN,
		Owners: r.Owners,
	}
	partition := r.Partition
	if partition == nil {
		partition = vlan.NewIntervalMap[model.InterfaceID]()
	}
	for _, e := range partition.Entries() {
		doc.Partition = append(doc.Partition, partitionEntry{
			VLANs:      e.Range,
			Interfaces: maps.SortedKeys(e.Payload, model.InterfaceID.Compare),
		})
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("error encoding topology result: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a YAML or JSON document written by Marshal. Every
// topology is rebuilt through its validating constructor, so the decoded
// result has no self-loops, canonical ranges and disjoint domains.
func Unmarshal(data []byte, network *model.Network) (*Result, error) {
	doc := resultDocument{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error decoding topology result: %w", err)
	}
	partition := map[vlan.Interval]sets.Set[model.InterfaceID]{}
	for _, e := range doc.Partition {
		partition[e.VLANs.Interval()] = sets.New(e.Interfaces...)
	}
	intervals, err := vlan.NewIntervalMapFrom(partition)
	if err != nil {
		return nil, fmt.Errorf("error decoding vlan partition: %w", err)
	}
	if doc.Layer1 == nil {
		doc.Layer1 = layer1.NewTopologies(network, nil, nil)
	}
	if doc.Layer3 == nil {
		doc.Layer3 = layer3.NewTopology()
	}
	if doc.VXLAN == nil {
		doc.VXLAN = &vxlan.Topology{}
	}
	return &Result{
		Layer1:      doc.Layer1,
		Layer2:      doc.Layer2,
		Layer3:      doc.Layer3,
		Adjacencies: adjacencies(network, doc.Layer1, doc.Layer2),
		VXLAN:       doc.VXLAN,
		Partition:   intervals,
		Owners:      doc.Owners,
	}, nil
}

// WriteFile stores r at path.
func WriteFile(path string, r *Result) error {
	data, err := Marshal(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("error writing topology result: %w", err)
	}
	return nil
}

// ReadFile loads a result stored by WriteFile.
func ReadFile(path string, network *model.Network) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading topology result: %w", err)
	}
	return Unmarshal(data, network)
}
