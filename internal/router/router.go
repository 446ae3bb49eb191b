// Package router sets up all HTTP routes and middleware chains for the
// classifieds API. Routes live under /api/v1, split into public and
// token-protected groups.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"adsouk/internal/handlers"
	"adsouk/internal/middleware"
	"adsouk/internal/token"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(tokens *token.Store, auth *handlers.Auth, categories *handlers.Categories, ads *handlers.Ads) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Authenticate(tokens))

	// Health check, no auth.
	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints are rate limited to slow down credential stuffing.
		r.Group(func(r chi.Router) {
			limiter := middleware.NewRateLimiter(10, time.Minute)
			r.Use(limiter.Middleware)

			r.Post("/register", auth.Register)
			r.Post("/login", auth.Login)
		})

		// Public catalog.
		r.Get("/categories", categories.List)
		r.Get("/categories/{id}/fields", categories.Fields)
		r.Get("/ads", ads.List)
		r.Get("/ads/{id}", ads.Show)

		// Token-protected area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/logout", auth.Logout)
			r.Post("/ads", ads.Create)
			r.Get("/my-ads", ads.MyAds)

			r.Post("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/verify", auth.TwoFAVerify)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
