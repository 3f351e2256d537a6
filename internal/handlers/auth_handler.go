package handlers

import (
	"net/http"
	"time"

	"kotoba/internal/logger"
	"kotoba/internal/models"
	"kotoba/internal/security"
	"kotoba/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService    *service.AuthService
	csrf           *security.CSRFGenerator
	oauthProviders map[string]OAuthProvider
	redirectBase   string
	appBaseURL     string
	log            *logger.Logger
}

// AuthHandlerConfig wires an AuthHandler
type AuthHandlerConfig struct {
	AuthService    *service.AuthService
	CSRF           *security.CSRFGenerator
	OAuthProviders map[string]OAuthProvider
	// OAuthRedirectBaseURL is the public origin OAuth callbacks return to.
	// When empty it is derived from the request.
	OAuthRedirectBaseURL string
	// AppBaseURL is where the browser lands after an OAuth login
	AppBaseURL string
	Log        *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		authService:    cfg.AuthService,
		csrf:           cfg.CSRF,
		oauthProviders: cfg.OAuthProviders,
		redirectBase:   cfg.OAuthRedirectBaseURL,
		appBaseURL:     cfg.AppBaseURL,
		log:            cfg.Log.With("component", "AuthHandler"),
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	CSRFToken string       `json:"csrfToken"`
	User      *models.User `json:"user"`
}

// Register creates an account and signs it in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	h.respondLogin(w, r, http.StatusCreated, result)
}

// Login handles password login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	h.respondLogin(w, r, http.StatusOK, result)
}

// respondLogin sets the session cookie and returns the access token together
// with the CSRF token cookie-authenticated clients must echo.
func (h *AuthHandler) respondLogin(w http.ResponseWriter, r *http.Request, status int, result *service.LoginResult) {
	csrfToken, err := h.csrf.GenerateToken(result.Session.ID)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, result.Session.ID, result.Session.ExpiresAt))
	respondJSON(w, status, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.Session.ExpiresAt,
		CSRFToken: csrfToken,
		User:      result.User,
	})
}

// Logout deletes the auth session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), authSessionFromContext(r.Context())); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, GetUserFromContext(r.Context()))
}

// CSRFToken hands a cookie-authenticated client its CSRF token again
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrf.GenerateToken(authSessionFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// ForgotPassword always answers 202 so addresses cannot be probed
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.log.Error("password reset request failed", "error", err)
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists for that address, a reset link has been sent.",
	})
}

// ResetPassword sets a new password from a reset token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
