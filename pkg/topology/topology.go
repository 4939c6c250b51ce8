// Package topology derives the layer-1, layer-2 and layer-3 topologies of a
// snapshot and the IP owners depending on them.
package topology

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/telekom/das-schiff-network-topology/pkg/config"
	"github.com/telekom/das-schiff-network-topology/pkg/diagnostics"
	"github.com/telekom/das-schiff-network-topology/pkg/helpers/slice"
	"github.com/telekom/das-schiff-network-topology/pkg/ipowner"
	"github.com/telekom/das-schiff-network-topology/pkg/layer1"
	"github.com/telekom/das-schiff-network-topology/pkg/layer2"
	"github.com/telekom/das-schiff-network-topology/pkg/layer3"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"github.com/telekom/das-schiff-network-topology/pkg/monitoring"
	"github.com/telekom/das-schiff-network-topology/pkg/pointtopoint"
	"github.com/telekom/das-schiff-network-topology/pkg/vlan"
	"github.com/telekom/das-schiff-network-topology/pkg/vxlan"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Result is the immutable outcome of one computation.
type Result struct {
	Layer1 *layer1.Topologies
	// Layer2 is nil when no wiring is known at all.
	Layer2      *layer2.Topology
	Layer3      *layer3.Topology
	Adjacencies layer3.Adjacencies
	VXLAN       *vxlan.Topology
	// Partition is the network-wide split of all configured VLAN ranges.
	Partition *vlan.IntervalMap[model.InterfaceID]
	Owners    *ipowner.Owners
}

// Engine computes topologies. It holds no per-snapshot state and can be
// shared between goroutines.
type Engine struct {
	config *config.Config
	sink   diagnostics.Sink
	logger logr.Logger
}

// NewEngine returns an engine reporting anomalies to sink. Unset config fields use
// the defaults, a nil sink drops anomalies and a zero logger logs to the
// controller-runtime root logger.
func NewEngine(cfg *config.Config, sink diagnostics.Sink, logger logr.Logger) *Engine {
	cfg = cfg.WithDefaults()
	if logger.GetSink() == nil {
		logger = log.Log
	}
	if sink == nil {
		sink = diagnostics.Discard()
	}
	return &Engine{
		config: cfg,
		sink:   diagnostics.Tee(sink, metricsSink{}),
		logger: logger.WithName("topology"),
	}
}

// metricsSink counts anomalies by kind.
type metricsSink struct{}

func (metricsSink) Record(a diagnostics.Anomaly) {
	monitoring.RecordAnomaly(string(a.Kind))
}

func (e *Engine) stage(name string, start time.Time) {
	duration := time.Since(start)
	monitoring.RecordStage(name, duration)
	e.logger.V(1).Info("stage finished", "stage", name, "duration", duration.String())
}

// Compute derives every topology of snapshot. Inconsistent input degrades the
// affected parts and is reported to the sink; errors are only returned when
// ctx is done.
func (e *Engine) Compute(ctx context.Context, snapshot *model.Snapshot) (*Result, error) {
	start := time.Now()
	for _, v := range snapshot.Validate() {
		e.sink.Record(validationAnomaly(v))
	}
	network := model.NewNetwork(snapshot.Devices)

	stageStart := time.Now()
	l1 := layer1.NewTopologies(network,
		layer1.FromSpecs(snapshot.Layer1),
		layer1.FromSpecs(snapshot.SynthesizedLayer1),
	)
	e.reportLayer1(network, l1)
	e.stage(monitoring.StageLayer1, stageStart)

	result := &Result{Layer1: l1, VXLAN: vxlan.Compute(network)}

	stageStart = time.Now()
	result.Partition = buildPartition(network)
	if l1.HasL1() {
		l2, err := computeLayer2(ctx, network, l1.ActiveLogical(), result.VXLAN, result.Partition, e.config.Parallelism, e.sink)
		if err != nil {
			return nil, err
		}
		result.Layer2 = l2
		monitoring.RecordBroadcastDomains(len(l2.Domains()))
	} else {
		e.logger.Info("no layer1 wiring known, assuming a single broadcast domain")
	}
	e.stage(monitoring.StageLayer2, stageStart)

	stageStart = time.Now()
	result.Adjacencies = adjacencies(network, l1, result.Layer2)
	overlay := canonicalOverlay(network, layer3.FromSpecs(snapshot.Overlay))
	result.Layer3 = layer3.ComputeEdges(network, result.Adjacencies, overlay, layer3.Options{ExcludeTunnels: e.config.ExcludeTunnels()})
	e.reportPairings(network, result.Adjacencies)
	e.stage(monitoring.StageLayer3, stageStart)

	stageStart = time.Now()
	result.Owners = ipowner.Compute(network, result.Adjacencies, ipowner.Options{IncludeInactive: e.config.IncludeInactiveOwners})
	e.stage(monitoring.StageOwners, stageStart)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("topology computation aborted: %w", err)
	}
	monitoring.RecordEdges("layer1", l1.ActiveLogical().Len())
	monitoring.RecordEdges("layer3", result.Layer3.Len())
	monitoring.RecordEdges("vxlan", result.VXLAN.Len())
	e.stage(monitoring.StageTotal, start)
	return result, nil
}

// adjacencies picks the hybrid strategy whenever any wiring is known.
func adjacencies(network *model.Network, l1 *layer1.Topologies, l2 *layer2.Topology) layer3.Adjacencies {
	if !l1.HasL1() || l2 == nil {
		return layer3.Global()
	}
	maps := pointtopoint.Compute(network, l1.Logical())
	return layer3.NewHybrid(l1.HostsWithL1(), l2, maps.Physical, maps.InterfaceParents)
}

func canonicalOverlay(network *model.Network, edges []layer3.Edge) []layer3.Edge {
	canonical := func(id model.InterfaceID) model.InterfaceID {
		return model.InterfaceID{Hostname: id.Hostname, Interface: network.CanonicalInterfaceName(id.Hostname, id.Interface)}
	}
	result := make([]layer3.Edge, len(edges))
	for i, edge := range edges {
		result[i] = layer3.NewEdge(canonical(edge.Interface1), canonical(edge.Interface2))
	}
	return result
}

func validationAnomaly(v *model.ValidationError) diagnostics.Anomaly {
	return diagnostics.Anomaly{Kind: v.Kind, Hostname: v.Hostname, Interface: v.Interface, Message: v.Message}
}

// reportLayer1 surfaces wiring that had to be dropped from the active view.
func (e *Engine) reportLayer1(network *model.Network, l1 *layer1.Topologies) {
	for _, n := range l1.Combined().Nodes() {
		id, ok := n.ID()
		if !ok {
			continue
		}
		iface, ok := network.Interface(id)
		switch {
		case !ok:
			e.sink.Record(diagnostics.Anomaly{
				Kind: diagnostics.MissingInterface, Hostname: id.Hostname, Interface: id.Interface,
				Message: "wired interface is not configured",
			})
		case !iface.IsActive():
			e.sink.Record(diagnostics.Anomaly{
				Kind: diagnostics.InactiveInterface, Hostname: id.Hostname, Interface: id.Interface,
				Message: "wired interface is inactive",
			})
		default:
			if layer1.ToLogical(network, n).IsMissing() {
				aggregate, _ := iface.Parent(model.DependencyAggregate)
				e.sink.Record(diagnostics.Anomaly{
					Kind: diagnostics.MissingParent, Hostname: id.Hostname, Interface: id.Interface,
					Message: fmt.Sprintf("aggregate %s is not configured", aggregate),
				})
			}
		}
	}
}

// reportPairings surfaces unnumbered interfaces without a unique peer.
func (e *Engine) reportPairings(network *model.Network, adjacencies layer3.Adjacencies) {
	if _, hybrid := adjacencies.(*layer3.Hybrid); !hybrid {
		return
	}
	unnumbered := slice.Filter(network.InterfaceIDs(), func(id model.InterfaceID) bool {
		iface, _ := network.Interface(id)
		return iface.IsActive() && len(iface.Addresses) == 0 && len(iface.LinkLocalPrefixes()) > 0
	})
	for _, id := range unnumbered {
		if _, ok := adjacencies.PairedPointToPointL3Interface(id); !ok {
			e.sink.Record(diagnostics.Anomaly{
				Kind: diagnostics.AmbiguousPairing, Hostname: id.Hostname, Interface: id.Interface,
				Message: "no unique point-to-point peer for unnumbered interface",
			})
		}
	}
}
