package convert

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/roadgraph/emit"
)

const (
	labelStatus = "status"
	labelKind   = "kind"
	labelReason = "reason"

	statusSuccess = "success"
	statusFailure = "failure"
)

// Metrics holds the converter's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runs       *prometheus.CounterVec
	statements prometheus.Counter
	duplicates prometheus.Counter
	entities   *prometheus.CounterVec
	skipped    *prometheus.CounterVec
	degraded   *prometheus.CounterVec
	published  prometheus.Counter
	duration   prometheus.Histogram
	lastRun    prometheus.Gauge
}

// NewMetrics creates and registers the converter collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadgraph_runs_total",
			Help: "The number of conversion runs by outcome",
		}, []string{labelStatus}),
		statements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadgraph_statements_total",
			Help: "The number of distinct statements written",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadgraph_duplicate_statements_total",
			Help: "The number of statements dropped because they were already present",
		}),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadgraph_entities_total",
			Help: "The number of entities emitted by kind",
		}, []string{labelKind}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadgraph_skipped_entities_total",
			Help: "The number of graph elements left out of the output by kind",
		}, []string{labelKind}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadgraph_input_issues_total",
			Help: "The number of incomplete or inconsistent input elements by reason",
		}, []string{labelReason}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadgraph_published_entities_total",
			Help: "The number of entity messages published to NATS",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roadgraph_run_duration_seconds",
			Help:    "Wall time of a conversion run",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roadgraph_last_success_timestamp_seconds",
			Help: "Unix time of the last successful conversion",
		}),
	}

	m.registry.MustRegister(
		m.runs,
		m.statements,
		m.duplicates,
		m.entities,
		m.skipped,
		m.degraded,
		m.published,
		m.duration,
		m.lastRun,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observe(stats emit.Stats, published int, elapsed time.Duration, err error) {
	status := statusSuccess
	if err != nil {
		status = statusFailure
	}
	m.runs.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())

	m.statements.Add(float64(stats.Statements))
	m.duplicates.Add(float64(stats.Duplicates))
	m.entities.WithLabelValues("node").Add(float64(stats.Nodes))
	m.entities.WithLabelValues("road").Add(float64(stats.Roads))
	m.entities.WithLabelValues("road_element").Add(float64(stats.RoadElements))

	m.skipped.WithLabelValues("node").Add(float64(stats.SkippedNodes))
	m.skipped.WithLabelValues("edge").Add(float64(stats.SkippedEdges))

	m.degraded.WithLabelValues("missing_point").Add(float64(stats.MissingPoints))
	m.degraded.WithLabelValues("missing_line").Add(float64(stats.MissingLines))
	m.degraded.WithLabelValues("missing_upstream_id").Add(float64(stats.MissingUpstreamIDs))
	m.degraded.WithLabelValues("invalid_shape").Add(float64(stats.InvalidShapes))
	m.degraded.WithLabelValues("dangling_ref").Add(float64(stats.DanglingRefs))

	m.published.Add(float64(published))
	if err == nil {
		m.lastRun.SetToCurrentTime()
	}
}

// WriteTextfile writes the current metric values in the Prometheus text
// format, for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
