package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kotoba/internal/logger"
	"kotoba/internal/security"
)

// RouterConfig collects the handlers mounted by NewRouter
type RouterConfig struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Sets       *SetHandler
	Learning   *LearningHandler
	Admin      *AdminHandler
	// AuthLimiter throttles login, registration and password reset requests
	AuthLimiter *security.RateLimiter
	Log         *logger.Logger
}

// NewRouter builds the HTTP API
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/auth/providers", cfg.Auth.Providers)
	r.Get("/auth/{provider}/start", cfg.Auth.StartOAuth)
	r.Get("/auth/{provider}/callback", cfg.Auth.OAuthCallback)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.AuthLimiter != nil {
				r.Use(RateLimit(cfg.AuthLimiter))
			}
			r.Post("/auth/register", cfg.Auth.Register)
			r.Post("/auth/login", cfg.Auth.Login)
			r.Post("/auth/password/forgot", cfg.Auth.ForgotPassword)
		})
		r.Post("/auth/password/reset", cfg.Auth.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Middleware.RequireAuth)

			r.Post("/auth/logout", cfg.Auth.Logout)
			r.Get("/auth/me", cfg.Auth.Me)
			r.Get("/auth/csrf", cfg.Auth.CSRFToken)

			r.Route("/sets", func(r chi.Router) {
				r.Get("/", cfg.Sets.ListSets)
				r.Post("/", cfg.Sets.CreateSet)
				r.Route("/{setID}", func(r chi.Router) {
					r.Get("/", cfg.Sets.GetSet)
					r.Put("/", cfg.Sets.UpdateSet)
					r.Delete("/", cfg.Sets.DeleteSet)
					r.Post("/recount", cfg.Sets.RecountSet)
					r.Post("/sessions", cfg.Learning.Start)

					r.Get("/words", cfg.Sets.ListWords)
					r.Post("/words", cfg.Sets.AddWord)
					r.Post("/words/import", cfg.Sets.ImportWords)
					r.Put("/words/{wordID}", cfg.Sets.UpdateWord)
					r.Delete("/words/{wordID}", cfg.Sets.DeleteWord)
				})
			})

			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/", cfg.Learning.Get)
				r.Delete("/", cfg.Learning.Abandon)
				r.Post("/answer", cfg.Learning.Answer)
				r.Post("/next", cfg.Learning.Next)
			})

			r.Get("/history", cfg.Learning.History)
			r.Get("/stats", cfg.Learning.Stats)

			r.Route("/admin", func(r chi.Router) {
				r.Use(cfg.Middleware.RequireAdmin)
				r.Get("/users", cfg.Admin.ListUsers)
				r.Post("/recount", cfg.Admin.RecountAll)
				r.Get("/backup", cfg.Admin.ExportDatabase)
				r.Post("/backup", cfg.Admin.ImportDatabase)
			})
		})
	})

	return r
}
