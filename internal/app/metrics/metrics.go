// Package metrics exposes the Prometheus collectors for the API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fitchallenge",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitchallenge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fitchallenge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	badgeEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitchallenge",
			Subsystem: "badges",
			Name:      "evaluations_total",
			Help:      "Total number of badge eligibility evaluations.",
		},
		[]string{"outcome"},
	)

	badgesAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fitchallenge",
			Subsystem: "badges",
			Name:      "awarded_total",
			Help:      "Total number of badges granted to users.",
		},
	)

	invitationsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fitchallenge",
			Subsystem: "invitations",
			Name:      "expired_total",
			Help:      "Total number of invitations transitioned to EXPIRED.",
		},
	)

	challengesCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fitchallenge",
			Subsystem: "challenges",
			Name:      "completions_total",
			Help:      "Total number of challenge completions.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		badgeEvaluations,
		badgesAwarded,
		invitationsExpired,
		challengesCompleted,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementInFlight bumps the in-flight request gauge.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight lowers the in-flight request gauge.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordBadgeEvaluation records one user evaluation pass.
func RecordBadgeEvaluation(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	badgeEvaluations.WithLabelValues(outcome).Inc()
}

// RecordBadgeAwarded records one granted badge.
func RecordBadgeAwarded() { badgesAwarded.Inc() }

// RecordInvitationsExpired records invitations swept to EXPIRED.
func RecordInvitationsExpired(n int) { invitationsExpired.Add(float64(n)) }

// RecordChallengeCompleted records one completed participation.
func RecordChallengeCompleted() { challengesCompleted.Inc() }
