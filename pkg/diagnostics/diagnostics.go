// Package diagnostics carries recoverable anomalies found while deriving a
// topology to whoever is interested in them.
package diagnostics

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

// Kind classifies an anomaly.
type Kind string

const (
	// MissingInterface is a reference to an interface that is not configured.
	MissingInterface Kind = "missing-interface"
	// InactiveInterface is a wiring edge ending on an inactive interface.
	InactiveInterface Kind = "inactive-interface"
	// MissingParent is a bind or aggregate dependency on an absent or inactive interface.
	MissingParent Kind = "missing-parent"
	// InvalidVLANs is an allowed VLAN list that cannot be parsed.
	InvalidVLANs Kind = "invalid-vlans"
	// InvalidAddress is an address that cannot be parsed.
	InvalidAddress Kind = "invalid-address"
	// NativeVLANNotAllowed is a trunk whose native VLAN is not in its allowed list.
	NativeVLANNotAllowed Kind = "native-vlan-not-allowed"
	// AmbiguousPairing is a point-to-point link with more than one candidate.
	AmbiguousPairing Kind = "ambiguous-pairing"
	// DuplicateDevice is a hostname configured more than once.
	DuplicateDevice Kind = "duplicate-device"
	// Invalid covers the remaining validation failures.
	Invalid Kind = "invalid"
)

// Anomaly is one recoverable problem found in the input.
type Anomaly struct {
	Kind      Kind   `json:"kind"`
	Hostname  string `json:"hostname,omitempty"`
	Interface string `json:"interface,omitempty"`
	Message   string `json:"message"`
}

func (a Anomaly) String() string {
	if a.Interface != "" {
		return fmt.Sprintf("%s: %s[%s]: %s", a.Kind, a.Hostname, a.Interface, a.Message)
	}
	if a.Hostname != "" {
		return fmt.Sprintf("%s: %s: %s", a.Kind, a.Hostname, a.Message)
	}
	return fmt.Sprintf("%s: %s", a.Kind, a.Message)
}

//go:generate mockgen -destination ./mock/mock_diagnostics.go . Sink

// Sink receives anomalies. Implementations must be safe for concurrent use.
type Sink interface {
	Record(anomaly Anomaly)
}

type discard struct{}

func (discard) Record(Anomaly) {}

// Discard drops every anomaly.
func Discard() Sink {
	return discard{}
}

type logSink struct {
	logger logr.Logger
}

// NewLogSink logs every anomaly at info level.
func NewLogSink(logger logr.Logger) Sink {
	return &logSink{logger: logger}
}

func (s *logSink) Record(a Anomaly) {
	s.logger.Info("topology anomaly", "kind", a.Kind, "hostname", a.Hostname, "interface", a.Interface, "message", a.Message)
}

// Collector keeps anomalies in memory.
type Collector struct {
	mu        sync.Mutex
	anomalies []Anomaly
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Record(a Anomaly) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anomalies = append(c.anomalies, a)
}

// Anomalies returns a copy of the recorded anomalies in arrival order.
func (c *Collector) Anomalies() []Anomaly {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Anomaly{}, c.anomalies...)
}

// Count returns how many anomalies of kind were recorded.
func (c *Collector) Count(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, a := range c.anomalies {
		if a.Kind == kind {
			count++
		}
	}
	return count
}

type multiSink []Sink

func (m multiSink) Record(a Anomaly) {
	for _, s := range m {
		s.Record(a)
	}
}

// Tee forwards every anomaly to all sinks.
func Tee(sinks ...Sink) Sink {
	return multiSink(sinks)
}
