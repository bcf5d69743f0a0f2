/**
 * @description
 * HTTP router setup for the monzo-mcp service using go-chi/chi. The tool
 * listing and invocation endpoints sit behind ToolAuthMiddleware; /health is
 * public and reports the last credential probe outcome.
 */
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the auth and CORS settings for NewRouter.
type RouterConfig struct {
	InternalAPIKey   string
	JWTSigningSecret string
	AllowedOrigins   []string
}

// NewRouter creates a new Chi router and registers the tool routes.
func NewRouter(h *ToolHandlers, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Internal-API-Key"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthHandler)

	r.Group(func(r chi.Router) {
		r.Use(ToolAuthMiddleware(cfg.InternalAPIKey, cfg.JWTSigningSecret))
		r.Get("/tools", h.ListToolsHandler)
		r.Post("/tools/{name}/invoke", h.InvokeToolHandler)
	})

	return r
}
