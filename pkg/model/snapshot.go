package model

import (
	"fmt"
	"os"

	"github.com/telekom/das-schiff-network-topology/pkg/diagnostics"
	"gopkg.in/yaml.v2"
)

// Snapshot is everything the topology engine consumes for one network.
type Snapshot struct {
	Devices []*Device `yaml:"devices"`
	// Layer1 holds the user-provided physical wiring.
	Layer1 []Layer1EdgeSpec `yaml:"layer1"`
	// SynthesizedLayer1 holds wiring inferred by other modelling layers.
	SynthesizedLayer1 []Layer1EdgeSpec `yaml:"synthesizedLayer1"`
	// Overlay holds layer-3 edges of virtual wires and tunnels.
	Overlay []Layer3EdgeSpec `yaml:"overlay"`
}

// InterfaceRef references an interface by hostname and name, as written by a user.
type InterfaceRef struct {
	Hostname  string `yaml:"hostname"`
	Interface string `yaml:"interface"`
}

func (r InterfaceRef) ID() InterfaceID {
	return NewInterfaceID(r.Hostname, r.Interface)
}

type Layer1EdgeSpec struct {
	Node1 InterfaceRef `yaml:"node1"`
	Node2 InterfaceRef `yaml:"node2"`
}

type Layer3EdgeSpec struct {
	Interface1 InterfaceRef `yaml:"interface1"`
	Interface2 InterfaceRef `yaml:"interface2"`
}

// LoadSnapshot reads a YAML snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	read, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading snapshot file: %w", err)
	}
	snapshot := &Snapshot{}
	if err := yaml.Unmarshal(read, snapshot); err != nil {
		return nil, fmt.Errorf("error unmarshalling snapshot file: %w", err)
	}
	return snapshot, nil
}

// ValidationError is a recoverable problem found in a snapshot.
type ValidationError struct {
	Kind      diagnostics.Kind
	Hostname  string
	Interface string
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Interface == "" {
		return fmt.Sprintf("%s: %s", e.Hostname, e.Message)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Hostname, e.Interface, e.Message)
}

// Validate lists the parts of the snapshot the engine will ignore. The snapshot
// stays usable: every listed problem only removes the offending item.
func (s *Snapshot) Validate() []*ValidationError {
	problems := []*ValidationError{}
	seen := map[string]bool{}
	for _, d := range s.Devices {
		if d == nil {
			continue
		}
		host := CanonicalHostname(d.Hostname)
		if seen[host] {
			problems = append(problems, &ValidationError{Kind: diagnostics.DuplicateDevice, Hostname: host, Message: "duplicate hostname"})
			continue
		}
		seen[host] = true
		names := map[string]*Interface{}
		for _, iface := range d.Interfaces {
			if iface != nil {
				names[iface.Name] = iface
			}
		}
		for _, iface := range d.Interfaces {
			if iface == nil {
				continue
			}
			problems = append(problems, validateInterface(host, iface, names)...)
		}
		for i := range d.VNIs {
			v := &d.VNIs[i]
			if v.SourceAddress != "" {
				if _, err := ParsePrefix(v.SourceAddress); err != nil {
					problems = append(problems, &ValidationError{Kind: diagnostics.InvalidAddress, Hostname: host, Interface: v.InterfaceName(),
						Message: fmt.Sprintf("invalid source address %q", v.SourceAddress)})
				}
			}
		}
	}
	return problems
}

func validateInterface(host string, iface *Interface, names map[string]*Interface) []*ValidationError {
	problems := []*ValidationError{}
	report := func(kind diagnostics.Kind, format string, args ...interface{}) {
		problems = append(problems, &ValidationError{Kind: kind, Hostname: host, Interface: iface.Name, Message: fmt.Sprintf(format, args...)})
	}
	for _, group := range [][]string{iface.Addresses, iface.LinkLocalAddresses} {
		for _, a := range group {
			if _, err := ParsePrefix(a); err != nil {
				report(diagnostics.InvalidAddress, "invalid address %q", a)
			}
		}
	}
	if _, err := iface.AllowedVLANSpace(); err != nil {
		report(diagnostics.InvalidVLANs, "invalid allowed vlans %q", iface.AllowedVLANs)
	}
	for _, d := range iface.Dependencies {
		parent, ok := names[d.Interface]
		switch {
		case !ok:
			report(diagnostics.MissingParent, "%s dependency on missing interface %q", d.Type, d.Interface)
		case !parent.IsActive():
			report(diagnostics.MissingParent, "%s dependency on inactive interface %q", d.Type, d.Interface)
		}
	}
	for _, groups := range [][]RedundancyGroup{iface.VRRPGroups, iface.HSRPGroups} {
		for _, g := range groups {
			for _, a := range g.VirtualAddresses {
				if _, err := ParsePrefix(a); err != nil {
					report(diagnostics.InvalidAddress, "group %d: invalid virtual address %q", g.ID, a)
				}
			}
		}
	}
	return problems
}
