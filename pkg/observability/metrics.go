// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the storefront backend.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for generative-AI latencies,
// ranging from 100ms to 60s.
var LLMBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route pattern.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printology_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printology_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "route"},
	)

	// ChatsInFlight tracks chat acquisitions currently waiting on a model.
	ChatsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "printology_chats_in_flight",
			Help: "Chat acquisitions in flight",
		},
	)

	// CandidateAttemptsTotal counts requests sent to each model by classified result.
	CandidateAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printology_candidate_attempts_total",
			Help: "Model candidate attempts",
		},
		[]string{"model", "result"},
	)

	// CandidateLatency records per-candidate latency in seconds.
	CandidateLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printology_candidate_latency_seconds",
			Help:    "Model candidate latency",
			Buckets: LLMBuckets,
		},
		[]string{"model"},
	)

	// AcquisitionsTotal counts terminal acquisition outcomes.
	AcquisitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printology_acquisitions_total",
			Help: "Acquisition outcomes",
		},
		[]string{"outcome"},
	)

	// AcquisitionAttempts records how many candidates one acquisition used.
	AcquisitionAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "printology_acquisition_attempts",
			Help:    "Candidates tried per acquisition",
			Buckets: prometheus.LinearBuckets(0, 1, 7),
		},
	)

	// DeliveriesTotal counts outbound contact copies by recipient and status.
	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printology_contact_deliveries_total",
			Help: "Contact message deliveries",
		},
		[]string{"recipient", "status"},
	)

	// DispatchesTotal counts contact dispatches by the confirmation shown.
	DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printology_contact_dispatches_total",
			Help: "Contact dispatches",
		},
		[]string{"confirmation"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printology_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ChatsInFlight,
		CandidateAttemptsTotal,
		CandidateLatency,
		AcquisitionsTotal,
		AcquisitionAttempts,
		DeliveriesTotal,
		DispatchesTotal,
		RateLimitRejectedTotal,
	)
}
