package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ExtractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "javakg_extraction_seconds",
		Help:    "Time spent extracting one source or build file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	FilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "javakg_files_processed_total",
		Help: "Files handled by the extraction workers, by outcome.",
	}, []string{"outcome"})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "javakg_phase_seconds",
		Help:    "Time spent in each pipeline phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	GraphNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "javakg_graph_nodes",
		Help: "Nodes in the last assembled graph, by kind.",
	}, []string{"kind"})

	GraphEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "javakg_graph_edges",
		Help: "Edges in the last assembled graph, by kind.",
	}, []string{"kind"})

	Diagnostics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "javakg_diagnostics_total",
		Help: "Diagnostics recorded, by severity.",
	}, []string{"severity"})

	RecordCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "javakg_record_cache_hits_total",
		Help: "Per-file records reused from the cache instead of re-extracted.",
	})
)

const (
	OutcomeOK         = "ok"
	OutcomeUnreadable = "unreadable"
	OutcomeSkipped    = "skipped"
	OutcomeCached     = "cached"
)

var WatchEvents = promauto.NewCounter(prometheus.CounterOpts{
	Name: "javakg_watch_events_total",
	Help: "File-system events seen by the watch loop.",
})
