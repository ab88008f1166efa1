// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlacesRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_requests_total",
			Help: "Requests sent to the places directory by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	PlacesRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "places_request_duration_seconds",
			Help:    "Latency of places directory requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	PlacesCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_detail_cache_lookups_total",
			Help: "Detail cache lookups by result",
		},
		[]string{"result"},
	)

	TourRecordsCollected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tour_records_collected_total",
			Help: "Tour records produced by the aggregation endpoint",
		},
	)

	BatchUnits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_units_total",
			Help: "Batch search terms processed by outcome",
		},
		[]string{"outcome"},
	)

	RestaurantUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_upserts_total",
			Help: "Restaurant upserts by outcome",
		},
		[]string{"outcome"},
	)

	InvitesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invites_sent_total",
			Help: "Invite emails by outcome",
		},
		[]string{"outcome"},
	)

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
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
