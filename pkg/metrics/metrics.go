// Package metrics provides Prometheus metrics for the call dashboard.
// Everything is registered on Registry, which the HTTP server exposes on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the service.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// =============================================================================
// TELEPHONY PROVIDER
// =============================================================================

// ProviderRequestsTotal counts requests to the telephony API by endpoint and status code.
var ProviderRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "calldash",
	Subsystem: "provider",
	Name:      "requests_total",
	Help:      "Requests sent to the telephony API by endpoint and HTTP status code",
}, []string{"endpoint", "code"})

// ProviderRequestDuration tracks telephony API latency.
var ProviderRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "calldash",
	Subsystem: "provider",
	Name:      "request_duration_seconds",
	Help:      "Latency of telephony API requests",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
}, []string{"endpoint"})

// CallsFetchedTotal counts call records pulled from the provider.
var CallsFetchedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "calldash",
	Subsystem: "provider",
	Name:      "calls_fetched_total",
	Help:      "Call history records fetched from the telephony API",
})

// TokenRefreshesTotal counts OAuth refresh attempts by result (ok, error).
var TokenRefreshesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "calldash",
	Subsystem: "oauth",
	Name:      "refreshes_total",
	Help:      "OAuth access token refreshes by result",
}, []string{"result"})

// =============================================================================
// DASHBOARD
// =============================================================================

// ReportsBuiltTotal counts assembled reports by view (overall, nurse, webhook).
var ReportsBuiltTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "calldash",
	Subsystem: "reports",
	Name:      "built_total",
	Help:      "Reports assembled by view",
}, []string{"view"})

// ReportDurationSeconds tracks time to fetch and aggregate a report.
var ReportDurationSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "calldash",
	Subsystem: "reports",
	Name:      "duration_seconds",
	Help:      "Time taken to fetch and aggregate a report",
	Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
}, []string{"view"})

// UsersCacheTotal counts users cache lookups by result (hit, miss).
var UsersCacheTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "calldash",
	Subsystem: "cache",
	Name:      "users_lookups_total",
	Help:      "Users cache lookups by result",
}, []string{"result"})

// LoginAttemptsTotal counts dashboard logins by result (ok, denied).
var LoginAttemptsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "calldash",
	Subsystem: "auth",
	Name:      "login_attempts_total",
	Help:      "Dashboard login attempts by result",
}, []string{"result"})
