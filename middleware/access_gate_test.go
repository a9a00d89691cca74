package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/appshivam/restauth/internal/observability"
	"github.com/appshivam/restauth/models"
	"github.com/appshivam/restauth/tokens"
	"github.com/appshivam/restauth/utils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestChain(t *testing.T) (http.Handler, *tokens.Codec) {
	t.Helper()
	logger := zap.NewNop()

	codec, err := tokens.NewCodec([]byte("0123456789abcdef0123456789abcdef"), "restauth", time.Hour)
	require.NoError(t, err)

	policy, err := NewRoutePolicy(PublicRules([]string{"/user/login", "/user/save", "/public/**"})...)
	require.NoError(t, err)

	gate := NewAccessGate(policy, NewEntryPoint(logger), logger)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return NewAuthMiddleware(codec, logger).Authenticate(gate.Handler(ok)), codec
}

func TestAccessGate(t *testing.T) {
	chain, codec := newTestChain(t)

	valid, err := codec.Issue(&models.User{Email: "a@x.com", Roles: []string{models.RoleUser}}, time.Now())
	require.NoError(t, err)
	expired, err := codec.Issue(&models.User{Email: "a@x.com"}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{"public route without token", "/user/login", "", http.StatusOK},
		{"public route with invalid token", "/user/login", "garbage", http.StatusOK},
		{"public subtree", "/public/docs/readme", "", http.StatusOK},
		{"protected route without token", "/user/profile", "", http.StatusUnauthorized},
		{"protected route with valid token", "/user/profile", valid.Token, http.StatusOK},
		{"protected route with expired token", "/user/profile", expired.Token, http.StatusUnauthorized},
		{"protected route with forged token", "/user/profile", valid.Token + "x", http.StatusUnauthorized},
		{"unlisted route defaults to authenticated", "/anything", "", http.StatusUnauthorized},
		{"trailing slash is a different route", "/user/login/", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			chain.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestAccessGate_RejectionBody(t *testing.T) {
	chain, _ := newTestChain(t)

	for _, token := range []string{"", "not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		chain.ServeHTTP(w, req)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var body utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "UNAUTHORIZED", body.Status)
		assert.Equal(t, http.StatusUnauthorized, body.Code)
		assert.Equal(t, AuthenticationRequiredMessage, body.Message)
		assert.False(t, body.Timestamp.IsZero())
		assert.Empty(t, body.Details)
	}
}

func TestAccessGate_CountsDecisions(t *testing.T) {
	chain, _ := newTestChain(t)
	rejected := observability.GateDecisionsTotal.WithLabelValues(observability.DecisionRejected)
	public := observability.GateDecisionsTotal.WithLabelValues(observability.DecisionPublic)

	beforeRejected := testutil.ToFloat64(rejected)
	beforePublic := testutil.ToFloat64(public)

	chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/user/profile", nil))
	chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/user/login", nil))

	assert.Equal(t, beforeRejected+1, testutil.ToFloat64(rejected))
	assert.Equal(t, beforePublic+1, testutil.ToFloat64(public))
}
