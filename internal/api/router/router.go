package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/summitlift/elevator-site/internal/forms"
	httpmiddleware "github.com/summitlift/elevator-site/internal/http/middleware"
	"github.com/summitlift/elevator-site/internal/redirects"
	"github.com/summitlift/elevator-site/internal/submissions"
	"github.com/summitlift/elevator-site/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	FormsHandler       *forms.Handler
	SubmissionsHandler *submissions.Handler
	Redirects          *redirects.Holder
	SettingsCache      SettingsInvalidator
	RateLimiter        *httpmiddleware.RateLimiter
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	// Redirects run ahead of routing so retired paths never reach a handler.
	if cfg.Redirects != nil {
		r.Use(redirects.Middleware(cfg.Redirects))
	}

	r.Get("/health", healthCheck(cfg.Redirects))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.FormsHandler != nil {
		r.Route("/api", func(api chi.Router) {
			api.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
			if cfg.RateLimiter != nil {
				api.Use(cfg.RateLimiter.Middleware)
			}
			api.Post("/contact", cfg.FormsHandler.SubmitContact)
			api.Post("/catalog", cfg.FormsHandler.SubmitCatalog)
			// Preflight is answered by the CORS middleware.
			api.Options("/*", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		})
	}

	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.Compress(5))
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.SubmissionsHandler != nil {
				admin.Get("/submissions", cfg.SubmissionsHandler.List)
			}
			if cfg.Redirects != nil {
				admin.Get("/redirects", listRedirects(cfg.Redirects))
			}
			if cfg.SettingsCache != nil {
				admin.Post("/settings/{form}/refresh", refreshSettings(cfg.SettingsCache, logger))
			}
		})
	}

	return r
}
