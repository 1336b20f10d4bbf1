package router

import (
	"net/http"

	"smart-pantry-api/internal/handler"
	"smart-pantry-api/internal/metrics"
	"smart-pantry-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	ItemHandler     *handler.ItemHandler
	CategoryHandler *handler.CategoryHandler
	AdminHandler    *handler.AdminHandler
	Metrics         *metrics.Metrics
	BulkLimiter     *middleware.RateLimiter

	AllowedOrigins []string
	MaxBodyBytes   int64
}

// New creates and configures the HTTP router. Pantry routes are served both
// at the root, where the browser UI expects them, and under /api/v1.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		pantryRoutes(r, cfg)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		pantryRoutes(r, cfg)

		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Get("/stats", cfg.AdminHandler.GetStats)
			})
		}
	})

	return r
}

func pantryRoutes(r chi.Router, cfg Config) {
	if cfg.ItemHandler != nil {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", cfg.ItemHandler.List)
			r.Post("/", cfg.ItemHandler.Create)
			if cfg.BulkLimiter != nil {
				r.With(cfg.BulkLimiter.Handler).Post("/bulk", cfg.ItemHandler.BulkImport)
			} else {
				r.Post("/bulk", cfg.ItemHandler.BulkImport)
			}
			r.Put("/{id}", cfg.ItemHandler.Update)
		})
		r.Get("/expiring", cfg.ItemHandler.Expiring)
	}

	if cfg.CategoryHandler != nil {
		r.Get("/categories", cfg.CategoryHandler.List)
		r.Post("/categories", cfg.CategoryHandler.Create)
	}
}
