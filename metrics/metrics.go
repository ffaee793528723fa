package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_documents_processed_total",
			Help: "Total number of documents processed by final state",
		},
		[]string{"state"},
	)

	EntitiesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_entities_extracted_total",
			Help: "Total number of entities extracted by kind",
		},
		[]string{"kind"},
	)

	ClassificationVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_classification_verdicts_total",
			Help: "Total number of classification verdicts by deciding stage and label",
		},
		[]string{"stage", "verdict"},
	)

	GenerationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_generation_fallbacks_total",
			Help: "Total number of template fallbacks by reason",
		},
		[]string{"reason"},
	)

	GenerationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "argus_generation_retries_total",
			Help: "Total number of generation backend retries",
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "argus_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	BatchWorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "argus_batch_workers_active",
			Help: "Number of batch worker goroutines currently processing documents",
		},
	)

	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_persistence_failures_total",
			Help: "Total number of result persistence failures by store",
		},
		[]string{"store"},
	)

	IntelSnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "argus_intel_snapshot_version",
			Help: "Version of the active threat intelligence snapshot",
		},
	)
)
