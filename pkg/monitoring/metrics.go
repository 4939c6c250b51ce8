// Package monitoring provides metrics for topology computations.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const (
	metricsNamespace = "nwtopo"
	metricsSubsystem = "topology"
	labelStage       = "stage"
	labelLayer       = "layer"
	labelKind        = "kind"
	labelProtocol    = "protocol"

	// StageLayer1 covers the physical and logical wiring views.
	StageLayer1 = "layer1"
	// StageLayer2 covers VLAN negotiation and broadcast domain computation.
	StageLayer2 = "layer2"
	// StageLayer3 covers adjacencies and layer-3 edges.
	StageLayer3 = "layer3"
	// StageOwners covers IP ownership elections.
	StageOwners = "owners"
	// StageTotal covers a whole computation.
	StageTotal = "total"
)

var (
	// ComputeDuration is a histogram that records the duration of each computation stage.
	ComputeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "compute_duration_seconds",
			Help:      "Duration of topology computation stages in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{labelStage},
	)

	// Edges is a gauge with the number of edges of the last computed topology per layer.
	Edges = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "edges",
			Help:      "Number of edges of the last computed topology",
		},
		[]string{labelLayer},
	)

	// BroadcastDomains is a gauge with the number of broadcast domains of the last computation.
	BroadcastDomains = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "broadcast_domains",
			Help:      "Number of broadcast domains of the last computed topology",
		},
	)

	// Anomalies counts recoverable input problems by kind.
	Anomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "anomalies_total",
			Help:      "Number of recoverable anomalies found in the input",
		},
		[]string{labelKind},
	)

	// Elections counts IP ownership elections by protocol.
	Elections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "elections_total",
			Help:      "Number of IP ownership elections held",
		},
		[]string{labelProtocol},
	)
)

func init() {
	// Register metrics with the controller-runtime metrics registry
	metrics.Registry.MustRegister(
		ComputeDuration,
		Edges,
		BroadcastDomains,
		Anomalies,
		Elections,
	)
}

// RecordStage records the duration of a computation stage.
func RecordStage(stage string, duration time.Duration) {
	ComputeDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordEdges records the edge count of a layer.
func RecordEdges(layer string, count int) {
	Edges.WithLabelValues(layer).Set(float64(count))
}

// RecordBroadcastDomains records the number of broadcast domains.
func RecordBroadcastDomains(count int) {
	BroadcastDomains.Set(float64(count))
}

// RecordAnomaly counts one anomaly.
func RecordAnomaly(kind string) {
	Anomalies.WithLabelValues(kind).Inc()
}

// RecordElection counts one election.
func RecordElection(protocol string) {
	Elections.WithLabelValues(protocol).Inc()
}
