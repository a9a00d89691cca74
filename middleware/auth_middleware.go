package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/appshivam/restauth/internal/observability"
	"github.com/appshivam/restauth/tokens"
	"go.uber.org/zap"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	// Validate returns the token's claims as of now, or an error wrapping tokens.ErrInvalidToken
	Validate(token string, now time.Time) (*tokens.Claims, error)
}

// AuthMiddleware establishes the principal for each request from its bearer token
type AuthMiddleware struct {
	validator TokenValidator
	now       func() time.Time
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		now:       time.Now,
		logger:    logger,
	}
}

// Authenticate validates the bearer token, if any, and records the outcome in
// the request context. It never rejects a request; AccessGate does that.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token, present := extractBearerToken(r)
		state := AuthStateNoToken

		if present {
			claims, err := m.validator.Validate(token, m.now())
			if err != nil {
				state = AuthStateInvalidToken
				m.logger.Debug("bearer token rejected",
					zap.String("request_id", requestID),
					zap.String("path", r.URL.Path),
					zap.Error(err))
			} else {
				state = AuthStateValidToken
				ctx = WithSecurityContext(ctx, securityContextFromClaims(claims))
				m.logger.Debug("authentication successful",
					zap.String("request_id", requestID),
					zap.String("sub", claims.Subject))
			}
		}

		observability.TokenValidationsTotal.WithLabelValues(state.String()).Inc()

		next.ServeHTTP(w, r.WithContext(WithAuthState(ctx, state)))
	})
}

func securityContextFromClaims(claims *tokens.Claims) *SecurityContext {
	sc := &SecurityContext{
		Subject: claims.Subject,
		Roles:   append([]string(nil), claims.Roles...),
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		sc.ExpiresAt = claims.ExpiresAt.Time
	}
	return sc
}

// extractBearerToken returns the token from "Authorization: Bearer <token>".
// present is false when the header is missing or uses another scheme.
func extractBearerToken(r *http.Request) (token string, present bool) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return "", false
	}

	scheme, rest, _ := strings.Cut(authHeader, " ")
	if !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	return strings.TrimSpace(rest), true
}
