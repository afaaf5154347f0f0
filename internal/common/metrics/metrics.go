// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes recorded on PipelineRuns.
const (
	OutcomeSuccess        = "success"
	OutcomeInputRejected  = "input_rejected"
	OutcomeDefinitionRead = "definition_read_failed"
	OutcomeEngineFailed   = "engine_failed"
	OutcomeResultInvalid  = "result_invalid"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	PipelineDispatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_dispatch_total",
			Help: "Total number of calls made into the pipeline engine",
		},
	)

	PipelineDispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_dispatch_duration_seconds",
			Help:    "Duration of the pipeline engine call in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	MissingInputFields = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_missing_fields_total",
			Help: "Required input fields found missing, by field",
		},
		[]string{"field"},
	)
)
