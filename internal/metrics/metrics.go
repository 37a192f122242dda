// Package metrics exposes the Prometheus collectors for the HTTP surface,
// the session lifecycle, and the relationship ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "videotube"

// Toggle outcome labels.
const (
	ToggleCreated = "created"
	ToggleRemoved = "removed"
)

var (
	// HTTPRequestsTotal counts finished requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// TokensIssuedTotal counts session token pairs minted, by grant
	// (register, login, refresh).
	TokensIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Access/refresh token pairs issued.",
	}, []string{"grant"})

	// AuthFailuresTotal counts rejected authentication attempts by reason.
	AuthFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Authentication attempts rejected.",
	}, []string{"reason"})

	// ToggleOperationsTotal counts ledger toggles by edge type and outcome.
	ToggleOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "toggle_operations_total",
		Help:      "Relationship toggle operations performed.",
	}, []string{"edge_type", "outcome"})
)
