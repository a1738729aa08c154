package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

// Tracer uses the global provider; hosts install an exporter if they want spans.
var Tracer = otel.Tracer("markprep")

// Metrics definitions
var (
	TransformDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "markprep_transform_seconds",
		Help:    "Time spent running a named transformer.",
		Buckets: prometheus.DefBuckets,
	}, []string{"transformer"})

	TransformRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markprep_transform_runs_total",
		Help: "Total number of transformer invocations by outcome.",
	}, []string{"transformer", "outcome"})

	TransformerLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markprep_transformer_loads_total",
		Help: "Total number of transformer load attempts by outcome.",
	}, []string{"transformer", "outcome"})

	OverrideRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markprep_override_runs_total",
		Help: "Total number of blocks handled by an inline override.",
	}, []string{"lang"})

	BlocksProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markprep_blocks_processed_total",
		Help: "Total number of markup blocks processed by resolved language.",
	}, []string{"tag", "lang"})

	FilesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markprep_files_processed_total",
		Help: "Total number of files run through the pipeline by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "markprep_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
