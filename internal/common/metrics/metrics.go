// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	DiscoveryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_requests_total",
			Help: "Discovery queries by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	DiscoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_request_duration_seconds",
			Help:    "End-to-end discovery pipeline latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	DiscoveryCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_candidates",
			Help:    "Candidate suppliers loaded per request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"kind"},
	)

	DiscoveryExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_excluded_total",
			Help: "Candidates dropped by the pipeline, by reason",
		},
		[]string{"reason"},
	)

	QualitySource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_quality_source_total",
			Help: "Whether base quality came from the precomputed row or was derived live",
		},
		[]string{"source"},
	)

	BaselineCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_baseline_cache_total",
			Help: "Marketplace baseline cache lookups",
		},
		[]string{"layer", "result"},
	)

	SearchIndexFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_search_index_fallbacks_total",
			Help: "Free-text searches that fell back to the SQL scan",
		},
	)

	CandidatesTruncated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_candidates_truncated_total",
			Help: "Discovery requests whose candidate read hit the candidate limit",
		},
		[]string{"kind"},
	)
)
