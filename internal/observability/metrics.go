package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values for the counters below
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"

	TokenNone    = "none"
	TokenValid   = "valid"
	TokenInvalid = "invalid"

	DecisionPublic        = "public"
	DecisionAuthenticated = "authenticated"
	DecisionRejected      = "rejected"
)

var (
	// LoginAttemptsTotal counts login attempts by outcome (success, failure, error).
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Total number of login attempts, by outcome.",
	}, []string{"outcome"})

	// TokenValidationsTotal counts request authentication filter outcomes.
	TokenValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_validations_total",
		Help: "Total number of inbound requests by bearer token state (none, valid, invalid).",
	}, []string{"result"})

	// GateDecisionsTotal counts access decisions by result.
	GateDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_gate_decisions_total",
		Help: "Total number of access decisions, by decision (public, authenticated, rejected).",
	}, []string{"decision"})
)

// MetricsHandler serves the default Prometheus registry
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// HTTPRequestDuration observes request latency by route pattern.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "auth_http_request_duration_seconds",
	Help:    "HTTP request latencies in seconds, by method, route pattern and status.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "path", "status"})
