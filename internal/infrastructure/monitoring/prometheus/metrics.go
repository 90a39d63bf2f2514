package prometheus

import (
	"time"
)

// GraphMetrics holds the metrics recorded while building residue graphs.
type GraphMetrics struct {
	// Engine
	DetectorDuration      HistogramVec
	DetectorContributions CounterVec
	DetectorErrors        CounterVec

	// Graph shape of the last build
	GraphNodes       GaugeVec
	GraphEdges       GaugeVec
	GraphEdgesByKind GaugeVec

	// Service
	BuildsTotal   CounterVec
	BuildDuration HistogramVec

	// Infrastructure
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	SinkDuration     HistogramVec
	SinkErrorsTotal  CounterVec
}

// Buckets.
var (
	DefaultDetectorDurationBuckets = []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	DefaultBuildDurationBuckets    = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	DefaultSinkDurationBuckets     = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewGraphMetrics registers every graph metric on collector.
func NewGraphMetrics(collector MetricsCollector) *GraphMetrics {
	m := &GraphMetrics{}

	m.DetectorDuration = collector.RegisterHistogram("detector_duration_seconds", "Interaction detector run time", DefaultDetectorDurationBuckets, "detector")
	m.DetectorContributions = collector.RegisterCounter("detector_contributions_total", "Residue pairs contributed by a detector", "detector")
	m.DetectorErrors = collector.RegisterCounter("detector_errors_total", "Detector failures", "detector")

	m.GraphNodes = collector.RegisterGauge("graph_nodes", "Residue nodes in the last built graph")
	m.GraphEdges = collector.RegisterGauge("graph_edges", "Interaction edges in the last built graph")
	m.GraphEdgesByKind = collector.RegisterGauge("graph_edges_by_kind", "Edges carrying a bond kind in the last built graph", "kind")

	m.BuildsTotal = collector.RegisterCounter("builds_total", "Graph builds", "status")
	m.BuildDuration = collector.RegisterHistogram("build_duration_seconds", "End-to-end graph build time", DefaultBuildDurationBuckets)

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Document cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Document cache misses", "cache")
	m.SinkDuration = collector.RegisterHistogram("sink_duration_seconds", "Time spent writing to a sink", DefaultSinkDurationBuckets, "sink")
	m.SinkErrorsTotal = collector.RegisterCounter("sink_errors_total", "Sink write failures", "sink")

	return m
}

// ObserveDetector records one detector run. It satisfies the engine's
// observer contract.
func (m *GraphMetrics) ObserveDetector(name string, d time.Duration, contributions int, err error) {
	m.DetectorDuration.WithLabelValues(name).Observe(d.Seconds())
	m.DetectorContributions.WithLabelValues(name).Add(float64(contributions))
	if err != nil {
		m.DetectorErrors.WithLabelValues(name).Inc()
	}
}

// RecordGraph sets the shape gauges from a finished build. Kinds absent from
// counts are dropped from the vector.
func (m *GraphMetrics) RecordGraph(nodes, edges int, counts map[string]int) {
	m.GraphNodes.WithLabelValues().Set(float64(nodes))
	m.GraphEdges.WithLabelValues().Set(float64(edges))
	m.GraphEdgesByKind.Reset()
	for kind, n := range counts {
		m.GraphEdgesByKind.WithLabelValues(kind).Set(float64(n))
	}
}

// RecordBuild counts a build and its duration.
func (m *GraphMetrics) RecordBuild(d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.BuildsTotal.WithLabelValues(status).Inc()
	m.BuildDuration.WithLabelValues().Observe(d.Seconds())
}

// RecordCacheAccess counts a hit or a miss.
func (m *GraphMetrics) RecordCacheAccess(cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordSink records one write to a persistence sink.
func (m *GraphMetrics) RecordSink(sink string, d time.Duration, err error) {
	m.SinkDuration.WithLabelValues(sink).Observe(d.Seconds())
	if err != nil {
		m.SinkErrorsTotal.WithLabelValues(sink).Inc()
	}
}
