package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/session-gateway/app"
	"github.com/upb/session-gateway/handlers"
	"github.com/upb/session-gateway/internal/observability"
	"github.com/upb/session-gateway/middleware"
	"github.com/upb/session-gateway/utils"
)

const metricsPath = "/metrics"

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(observability.NewContextLogger(deps.Logger)))
	r.Use(chimiddleware.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	}
	if cfg.Observability.MetricsEnabled {
		r.Use(deps.Metrics.Collect(metricsPath))
	}

	// The frontend runs on its own origin and sends the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	health := handlers.NewHealthHandler(providerPinger(deps), databaseChecker(deps), deps.Logger)
	r.Get("/health", health.HandleHealth)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if cfg.Observability.MetricsEnabled {
		r.Method(http.MethodGet, metricsPath, deps.Metrics.Handler())
	}

	// Login flow
	r.Get("/login", handlers.AuthLoginHandler(deps))
	r.Get("/callback", handlers.AuthCallbackHandler(deps))
	r.Get("/logout", handlers.AuthLogoutHandler(deps))

	// Browser pages: failures redirect to login
	r.With(deps.SessionMiddleware.RequireSession).Get("/dashboard", handlers.ProfileHandler())

	// API: failures answer 401, never a redirect
	r.Route("/api", func(r chi.Router) {
		r.Get("/hello", handlers.HelloHandler())

		r.Group(func(r chi.Router) {
			r.Use(deps.SessionMiddleware.RequireAPISession)
			r.Get("/me", handlers.ProfileHandler())
			r.Get("/me/events", handlers.AuthEventsHandler(deps.History, deps.Logger))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

// providerPinger returns nil when no provider client exists, keeping the
// interface nil rather than holding a nil pointer.
func providerPinger(deps *app.Dependencies) handlers.ProviderPinger {
	if deps.ProviderClient == nil {
		return nil
	}
	return deps.ProviderClient
}

func databaseChecker(deps *app.Dependencies) handlers.HealthChecker {
	if deps.RepoFactory == nil {
		return nil
	}
	return deps.RepoFactory
}
