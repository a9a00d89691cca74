package middleware

import (
	"net/http"

	"github.com/appshivam/restauth/utils"
	"go.uber.org/zap"
)

// AuthenticationRequiredMessage is the only message a rejected request sees
const AuthenticationRequiredMessage = "Authentication required"

// EntryPoint turns a rejected access attempt into a 401 response
type EntryPoint struct {
	logger *zap.Logger
}

// NewEntryPoint creates a new EntryPoint
func NewEntryPoint(logger *zap.Logger) *EntryPoint {
	return &EntryPoint{logger: logger}
}

// Commence writes the generic 401 body. Whether the token was missing,
// expired or forged is logged but never returned to the client.
func (e *EntryPoint) Commence(w http.ResponseWriter, r *http.Request) {
	e.logger.Info("access denied",
		zap.String("request_id", GetRequestIDFromContext(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Stringer("auth_state", GetAuthState(r.Context())),
	)

	if err := utils.WriteUnauthorized(w, AuthenticationRequiredMessage); err != nil {
		e.logger.Error("failed to write unauthorized response", zap.Error(err))
	}
}
