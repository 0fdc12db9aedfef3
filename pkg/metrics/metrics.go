package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhookRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Total number of webhook events handled, by outcome (count)",
		},
		[]string{"outcome"},
	)

	WebhookSkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_skips_total",
			Help: "Total number of skipped webhook events, by reason (count)",
		},
		[]string{"reason"},
	)

	WebhookProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_processing_duration_ms",
			Help:    "End-to-end processing duration of a webhook event in milliseconds",
			Buckets: []float64{10, 100, 500, 1000, 5000, 10000, 30000, 60000, 120000, 300000},
		},
		[]string{"outcome"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_ms",
			Help:    "Duration of each pipeline stage in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"stage", "status"},
	)

	ScreenshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenshots_total",
			Help: "Total number of source page screenshots attempted (count)",
		},
		[]string{"status"},
	)

	CollaboratorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collaborator_requests_total",
			Help: "Total number of requests to external collaborators (count)",
		},
		[]string{"collaborator", "status"},
	)

	CollaboratorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collaborator_duration_ms",
			Help:    "Duration of external collaborator requests in milliseconds",
			Buckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"collaborator"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"collaborator"},
	)

	AnalyticsCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_cache_total",
			Help: "Domain analytics cache lookups, by result (count)",
		},
		[]string{"result"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_usage_total",
			Help: "Total number of times fallback strategies were used (count)",
		},
		[]string{"component", "strategy", "reason"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			WebhookRequestsTotal,
			WebhookSkipsTotal,
			WebhookProcessingDuration,
			StageDuration,
			ScreenshotsTotal,
			CollaboratorRequestsTotal,
			CollaboratorDuration,
			RetryAttemptsTotal,
			AnalyticsCacheTotal,
			CircuitBreakerState,
			CircuitBreakerRequests,
			CircuitBreakerFailures,
			RateLimitRequestsTotal,
			FallbackUsageTotal,
		)
	})
}

func ObserveWebhook(outcome string, duration time.Duration) {
	WebhookRequestsTotal.WithLabelValues(outcome).Inc()
	WebhookProcessingDuration.WithLabelValues(outcome).Observe(float64(duration.Milliseconds()))
}

func IncWebhookSkip(reason string) {
	WebhookSkipsTotal.WithLabelValues(reason).Inc()
}

func ObserveStageDuration(stage, status string, duration time.Duration) {
	StageDuration.WithLabelValues(stage, status).Observe(float64(duration.Milliseconds()))
}

func IncScreenshot(status string) {
	ScreenshotsTotal.WithLabelValues(status).Inc()
}

func ObserveCollaborator(collaborator, status string, duration time.Duration) {
	CollaboratorRequestsTotal.WithLabelValues(collaborator, status).Inc()
	CollaboratorDuration.WithLabelValues(collaborator).Observe(float64(duration.Milliseconds()))
}

func IncRetryAttempt(collaborator string) {
	RetryAttemptsTotal.WithLabelValues(collaborator).Inc()
}

func IncAnalyticsCache(result string) {
	AnalyticsCacheTotal.WithLabelValues(result).Inc()
}

func IncFallbackUsage(component, strategy, reason string) {
	FallbackUsageTotal.WithLabelValues(component, strategy, reason).Inc()
}
