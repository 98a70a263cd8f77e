package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volunteerhub_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// MatchChecks counts eligibility checks by outcome (ok|bad_request|not_found|error).
	MatchChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volunteerhub_match_checks_total",
			Help: "Total number of volunteer eligibility checks",
		},
		[]string{"result"},
	)

	// EligibleVolunteers observes the size of each eligibility result.
	EligibleVolunteers = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "volunteerhub_eligible_volunteers",
			Help:    "Number of eligible volunteers returned per match check",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	// Assignments counts assignment attempts by result code.
	Assignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volunteerhub_assignments_total",
			Help: "Total number of assignment attempts",
		},
		[]string{"result"},
	)

	// NotificationDeliveries counts external deliveries (sent|failed|skipped|disabled).
	NotificationDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volunteerhub_notification_deliveries_total",
			Help: "Outcome of external notification delivery attempts",
		},
		[]string{"channel", "result"},
	)

	// APILatency measures HTTP request latencies per route pattern.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "volunteerhub_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "group", "route", "status"},
	)

	// APIRequests counts requests per route group (auth, events, match, ...) and status class.
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volunteerhub_api_requests_total",
			Help: "Total number of API requests by route group",
		},
		[]string{"group", "status_class"},
	)
)
