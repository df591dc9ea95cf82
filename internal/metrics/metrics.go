// Package metrics holds the Prometheus instruments used across the app.
// All collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ActiveSessions counts browser sessions held in memory.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "escalado_active_sessions",
			Help: "Number of browser sessions currently held in memory.",
		})

	// AuthRequests counts auth-service operations by op and outcome.
	AuthRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escalado_auth_requests_total",
			Help: "Auth operations by operation and outcome (ok, error).",
		}, []string{"op", "outcome"})

	// ProfileQueries counts profile store calls by op, store, and outcome.
	ProfileQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escalado_profile_queries_total",
			Help: "Profile store calls by operation, backend, and outcome.",
		}, []string{"op", "store", "outcome"})

	// Navigations counts router transitions by requested and shown page.
	Navigations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escalado_navigations_total",
			Help: "Router navigations by requested page and page actually shown.",
		}, []string{"requested", "shown"})

	// StaleCommits counts action results discarded because a newer action
	// had already started.
	StaleCommits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "escalado_stale_commits_total",
			Help: "Router action results dropped as stale.",
		})

	// HTTPRequests counts served requests by method and status class.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escalado_http_requests_total",
			Help: "HTTP requests by method and status code class.",
		}, []string{"method", "class"})

	// TemplateCache counts view template-set cache traffic.
	TemplateCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escalado_template_cache_total",
			Help: "Parsed template set lookups by result (hit, miss, evict).",
		}, []string{"result"})

	// HTTPDuration observes request latency.
	HTTPDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "escalado_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		})
)

func init() {
	prometheus.MustRegister(
		ActiveSessions,
		AuthRequests,
		ProfileQueries,
		Navigations,
		StaleCommits,
		HTTPRequests,
		TemplateCache,
		HTTPDuration,
	)
}

// Outcome maps an error to the "ok" / "error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
