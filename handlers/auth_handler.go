package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/appshivam/restauth/models"
	"github.com/appshivam/restauth/services"
	"github.com/appshivam/restauth/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService is the part of services.AuthService the auth endpoints use
type AuthService interface {
	Login(ctx context.Context, identifier, secret string) (*services.LoginResult, error)
	Register(ctx context.Context, email, password string, roles []string) (*models.User, error)
}

// LoginRequest is the body of POST /user/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RegisterRequest is the body of POST /user/save
type RegisterRequest struct {
	Email    string   `json:"email" validate:"required,email,max=254"`
	Password string   `json:"password" validate:"required,min=8,max=72"`
	Roles    []string `json:"roles,omitempty" validate:"omitempty,max=8,dive,role"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Roles []string  `json:"roles"`
}

// AuthHandler serves login and registration
type AuthHandler struct {
	service AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// HandleLogin handles POST /user/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, LoginResponse{
		Token:     result.Token,
		TokenType: result.TokenType,
		ExpiresAt: result.ExpiresAt,
	})
}

// HandleRegister handles POST /user/save
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.Roles)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Roles: user.Roles,
	})
}
