package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodetail_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// Registrations counts registration lifecycle events (started|verified|resent|expired|mismatch).
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodetail_registrations_total",
			Help: "Registration lifecycle events",
		},
		[]string{"event"},
	)

	// ModerationDecisions counts admin decisions on queued submissions.
	ModerationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodetail_moderation_decisions_total",
			Help: "Moderation decisions by queue and outcome",
		},
		[]string{"queue", "decision"},
	)

	// ListingEvents counts listing mutations (created|updated|deleted|price_changed).
	ListingEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodetail_listing_events_total",
			Help: "Listing lifecycle events",
		},
		[]string{"event"},
	)

	// NotifierSends counts outbound notifications by kind and result (sent|skipped|failed).
	NotifierSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodetail_notifier_sends_total",
			Help: "Outbound notifications",
		},
		[]string{"kind", "result"},
	)

	// BlobOperations counts blob store calls by driver, operation and result.
	BlobOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodetail_blob_operations_total",
			Help: "Blob store operations",
		},
		[]string{"driver", "op", "result"},
	)

	// RateCacheLookups counts currency-rate cache lookups by result (hit|miss|error).
	RateCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodetail_rate_cache_lookups_total",
			Help: "Currency rate cache lookups",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autodetail_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
