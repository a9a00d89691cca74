package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/appshivam/restauth/utils"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// LoginRateLimit limits credential attempts per client IP within window.
// A non-positive limit disables limiting.
func LoginRateLimit(limit int, window time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("login rate limit exceeded",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			_ = utils.WriteTooManyRequests(w, "Too many login attempts. Please try again later.")
		}),
	)
}
