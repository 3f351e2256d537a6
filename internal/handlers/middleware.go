package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"kotoba/internal/logger"
	"kotoba/internal/models"
	"kotoba/internal/security"
	"kotoba/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey ContextKey = "user"
	AuthSessionKey ContextKey = "auth_session"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	csrf        *security.CSRFGenerator
	log         *logger.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, csrf *security.CSRFGenerator, log *logger.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		csrf:        csrf,
		log:         log,
	}
}

// RequireAuth accepts either a bearer access token or the session cookie.
// Cookie-authenticated requests that change state must carry the CSRF token.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := security.BearerToken(r); raw != "" {
			user, sessionID, err := m.authService.Authenticate(r.Context(), raw)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, sessionID)))
			return
		}

		cookie, err := r.Cookie(security.SessionCookieName)
		if err != nil || cookie.Value == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		user, err := m.authService.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
			respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		if !m.csrf.ValidateRequest(r, cookie.Value) {
			respondError(w, http.StatusForbidden, "csrf_failed", "Missing or invalid CSRF token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, cookie.Value)))
	})
}

// RequireAdmin must run after RequireAuth
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !user.IsAdmin {
			respondError(w, http.StatusForbidden, "forbidden", "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs method, path, status and duration of every request
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// RateLimit answers 429 with a JSON error once the client's budget is spent
func RateLimit(limiter *security.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(security.GetClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				respondError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withUser(ctx context.Context, user *models.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, user)
	return context.WithValue(ctx, AuthSessionKey, sessionID)
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func authSessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(AuthSessionKey).(string)
	return id
}
