package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"kotoba/internal/security"
)

const oauthCookieTTL = 10 * time.Minute

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// Providers lists the configured login providers
func (h *AuthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	type providerView struct {
		Name  string `json:"name"`
		Label string `json:"label"`
		URL   string `json:"url"`
	}
	views := []providerView{}
	for key, provider := range h.oauthProviders {
		if !provider.configured() {
			continue
		}
		views = append(views, providerView{Name: key, Label: provider.Label, URL: fmt.Sprintf("/auth/%s/start", key)})
	}
	respondJSON(w, http.StatusOK, views)
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := chi.URLParam(r, "provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		respondError(w, http.StatusNotFound, "provider_not_configured", "OAuth provider not configured")
		return
	}

	state := security.GenerateSessionID()
	h.setTempCookie(w, r, "oauth_state", state)
	h.setTempCookie(w, r, "oauth_provider", providerKey)

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)
	http.Redirect(w, r, config.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// OAuthCallback handles the OAuth provider callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := chi.URLParam(r, "provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		respondError(w, http.StatusNotFound, "provider_not_configured", "OAuth provider not configured")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "oauth_failed", "Missing authorization code")
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondError(w, http.StatusBadRequest, "oauth_failed", "Invalid OAuth state")
		return
	}
	if providerCookie, err := r.Cookie("oauth_provider"); err == nil && providerCookie.Value != providerKey {
		respondError(w, http.StatusBadRequest, "oauth_failed", "OAuth provider mismatch")
		return
	}

	h.clearTempCookie(w, r, "oauth_state")
	h.clearTempCookie(w, r, "oauth_provider")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		h.log.Warn("oauth code exchange failed", "provider", providerKey, "error", err)
		respondError(w, http.StatusBadRequest, "oauth_failed", "Failed to exchange OAuth code")
		return
	}

	info, err := fetchUserInfo(ctx, &config, provider.UserInfoURL, token)
	if err != nil {
		h.log.Warn("oauth user info failed", "provider", providerKey, "error", err)
		respondError(w, http.StatusBadRequest, "oauth_failed", "Failed to fetch user info")
		return
	}

	result, err := h.authService.OAuthLogin(ctx, providerKey, info.Subject, info.Email, info.Name)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, result.Session.ID, result.Session.ExpiresAt))
	http.Redirect(w, r, strings.TrimRight(h.appBaseURL, "/")+"/", http.StatusSeeOther)
}

// fetchUserInfo reads an OpenID-style userinfo document (Google's v2 shape)
func fetchUserInfo(ctx context.Context, config *oauth2.Config, userInfoURL string, token *oauth2.Token) (oauthUserInfo, error) {
	client := config.Client(ctx, token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("user info returned %d", resp.StatusCode)
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse user info: %w", err)
	}
	if payload.ID == "" || payload.Email == "" {
		return oauthUserInfo{}, errors.New("user info is missing id or email")
	}
	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.redirectBase)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}

func (h *AuthHandler) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	cookie := security.CreateSessionCookie(r, name, value, time.Now().Add(oauthCookieTTL))
	cookie.MaxAge = int(oauthCookieTTL.Seconds())
	http.SetCookie(w, cookie)
}

func (h *AuthHandler) clearTempCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, security.CreateDeleteCookie(r, name))
}
