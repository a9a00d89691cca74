package routes

import (
	"net/http"
	"time"

	"github.com/appshivam/restauth/app"
	"github.com/appshivam/restauth/middleware"
	"github.com/appshivam/restauth/utils"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware.
// Every request passes the authentication filter and the access gate;
// only the paths in the public route list are reachable without a token.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	if cfg.Server.TrustedProxy {
		// client address headers are only honoured behind a proxy that sets them
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"WWW-Authenticate", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Authentication filter, then the access gate
	r.Use(deps.AuthMiddleware.Authenticate)
	r.Use(deps.AccessGate.Handler)

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	r.Route("/user", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(cfg.Security.LoginRateLimit, time.Minute, deps.Logger)).
			Post("/login", deps.AuthHandler.HandleLogin)
		r.Post("/save", deps.AuthHandler.HandleRegister)
		r.Get("/profile", deps.UserHandler.HandleProfile)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
