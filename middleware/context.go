package middleware

import (
	"context"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// SecurityContextKey is the context key for the authenticated principal
	SecurityContextKey contextKey = "security_context"

	// AuthStateKey is the context key for the authentication filter outcome
	AuthStateKey contextKey = "auth_state"
)

// AuthState is the outcome of the authentication filter for one request
type AuthState int

const (
	// AuthStateNoToken means no bearer token was presented
	AuthStateNoToken AuthState = iota
	// AuthStateValidToken means a token was presented and accepted
	AuthStateValidToken
	// AuthStateInvalidToken means a token was presented and rejected
	AuthStateInvalidToken
)

// String returns the metric label for the state
func (s AuthState) String() string {
	switch s {
	case AuthStateValidToken:
		return "valid"
	case AuthStateInvalidToken:
		return "invalid"
	default:
		return "none"
	}
}

// SecurityContext is the principal established for a single request
type SecurityContext struct {
	Subject   string
	Roles     []string
	TokenID   string
	ExpiresAt time.Time
}

// HasRole returns true if the principal holds role
func (s *SecurityContext) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// GetRequestIDFromContext returns the id assigned by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// GetSecurityContext returns the authenticated principal, or nil
func GetSecurityContext(ctx context.Context) *SecurityContext {
	if val := ctx.Value(SecurityContextKey); val != nil {
		if sc, ok := val.(*SecurityContext); ok {
			return sc
		}
	}
	return nil
}

// WithSecurityContext attaches an authenticated principal to the context
func WithSecurityContext(ctx context.Context, sc *SecurityContext) context.Context {
	return context.WithValue(ctx, SecurityContextKey, sc)
}

// GetAuthState returns the filter outcome recorded in ctx
func GetAuthState(ctx context.Context) AuthState {
	if val := ctx.Value(AuthStateKey); val != nil {
		if state, ok := val.(AuthState); ok {
			return state
		}
	}
	return AuthStateNoToken
}

// WithAuthState records the filter outcome in the context
func WithAuthState(ctx context.Context, state AuthState) context.Context {
	return context.WithValue(ctx, AuthStateKey, state)
}
