package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"personachat/internal/config"
)

func NewRouter(apiHandler *APIHandler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(corsMiddleware(cfg))

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", apiHandler.HealthHandler)
		r.Post("/auth/register", apiHandler.RegisterHandler)
		r.Post("/auth/login", apiHandler.LoginHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.AuthMiddleware)

			r.Post("/chat", apiHandler.ChatHandler)
			r.Get("/messages", apiHandler.ListMessagesHandler)
		})
	})

	return r
}

// corsMiddleware mirrors the frontend deployment model: anything goes in
// development, a fixed allowlist (frontend URL plus any extra configured
// origins) in production. Requests without an Origin header, like curl or
// server-to-server calls, always pass.
func corsMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}

	if cfg.IsDevelopment() {
		options.AllowedOrigins = []string{"*"}
		return cors.Handler(options)
	}

	allowed := make(map[string]bool, len(cfg.AllowedOrigins)+1)
	if cfg.FrontendURL != "" {
		allowed[cfg.FrontendURL] = true
	}
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = true
	}
	options.AllowOriginFunc = func(r *http.Request, origin string) bool {
		return allowed[origin]
	}
	return cors.Handler(options)
}
