package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/appshivam/restauth/middleware"
	"github.com/appshivam/restauth/models"
	"github.com/appshivam/restauth/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileService loads the account behind an authenticated subject
type ProfileService interface {
	Profile(ctx context.Context, subject string) (*models.User, error)
}

// ProfileResponse describes the current principal. Roles come from the token.
type ProfileResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Roles          []string  `json:"roles"`
	TokenExpiresAt time.Time `json:"tokenExpiresAt"`
}

// UserHandler serves endpoints about the current principal
type UserHandler struct {
	service ProfileService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service ProfileService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// HandleProfile handles GET /user/profile
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetSecurityContext(r.Context())
	if sc == nil {
		// only reachable when the route is misconfigured as public
		_ = utils.WriteUnauthorized(w, middleware.AuthenticationRequiredMessage)
		return
	}

	user, err := h.service.Profile(r.Context(), sc.Subject)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, ProfileResponse{
		ID:             user.ID,
		Email:          user.Email,
		Roles:          sc.Roles,
		TokenExpiresAt: sc.ExpiresAt,
	})
}
