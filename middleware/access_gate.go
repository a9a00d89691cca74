package middleware

import (
	"net/http"

	"github.com/appshivam/restauth/internal/observability"
	"go.uber.org/zap"
)

// AccessGate admits or rejects requests according to a RoutePolicy. It runs
// after AuthMiddleware.Authenticate and before route dispatch.
type AccessGate struct {
	policy     *RoutePolicy
	entryPoint *EntryPoint
	logger     *zap.Logger
}

// NewAccessGate creates a new AccessGate
func NewAccessGate(policy *RoutePolicy, entryPoint *EntryPoint, logger *zap.Logger) *AccessGate {
	return &AccessGate{
		policy:     policy,
		entryPoint: entryPoint,
		logger:     logger,
	}
}

// Handler is the gate middleware
func (g *AccessGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if r.URL.RawPath != "" {
			path = r.URL.RawPath
		}

		switch {
		case g.policy.Decide(path) == AccessPublic:
			observability.GateDecisionsTotal.WithLabelValues(observability.DecisionPublic).Inc()
		case GetSecurityContext(r.Context()) != nil:
			observability.GateDecisionsTotal.WithLabelValues(observability.DecisionAuthenticated).Inc()
		default:
			observability.GateDecisionsTotal.WithLabelValues(observability.DecisionRejected).Inc()
			g.entryPoint.Commence(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
