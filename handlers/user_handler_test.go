package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/appshivam/restauth/middleware"
	"github.com/appshivam/restauth/models"
	"github.com/appshivam/restauth/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserHandler_HandleProfile(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns the current principal", func(t *testing.T) {
		svc := new(MockAuthService)
		user := models.NewUser("a@x.com", "hash", nil)
		svc.On("Profile", mock.Anything, "a@x.com").Return(user, nil)

		expiresAt := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
		req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
		req = req.WithContext(middleware.WithSecurityContext(req.Context(), &middleware.SecurityContext{
			Subject:   "a@x.com",
			Roles:     []string{models.RoleUser},
			ExpiresAt: expiresAt,
		}))
		w := httptest.NewRecorder()

		NewUserHandler(svc, logger).HandleProfile(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data ProfileResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, user.ID, body.Data.ID)
		assert.Equal(t, "a@x.com", body.Data.Email)
		assert.Equal(t, []string{models.RoleUser}, body.Data.Roles)
		assert.True(t, expiresAt.Equal(body.Data.TokenExpiresAt))
	})

	t.Run("401 without security context", func(t *testing.T) {
		svc := new(MockAuthService)

		w := httptest.NewRecorder()
		NewUserHandler(svc, logger).HandleProfile(w, httptest.NewRequest(http.MethodGet, "/user/profile", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "Profile", mock.Anything, mock.Anything)
	})

	t.Run("404 when the account no longer exists", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Profile", mock.Anything, "gone@x.com").Return(nil, services.ErrUserNotFound)

		req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
		req = req.WithContext(middleware.WithSecurityContext(req.Context(), &middleware.SecurityContext{Subject: "gone@x.com"}))
		w := httptest.NewRecorder()

		NewUserHandler(svc, logger).HandleProfile(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
