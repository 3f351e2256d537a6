package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"kotoba/internal/logger"
)

func TestFetchUserInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"g-42","email":"yuki@example.com","name":"Yuki"}`))
	}))
	defer srv.Close()

	info, err := fetchUserInfo(context.Background(), &oauth2.Config{}, srv.URL, &oauth2.Token{AccessToken: "access-123", TokenType: "Bearer"})
	require.NoError(t, err)
	assert.Equal(t, oauthUserInfo{Subject: "g-42", Email: "yuki@example.com", Name: "Yuki"}, info)

	_, err = fetchUserInfo(context.Background(), &oauth2.Config{}, srv.URL, &oauth2.Token{AccessToken: "wrong"})
	assert.Error(t, err)
}

func TestStartOAuthRedirects(t *testing.T) {
	h := NewAuthHandler(AuthHandlerConfig{
		OAuthProviders: map[string]OAuthProvider{
			"google": {
				Name:  "google",
				Label: "Google",
				Config: &oauth2.Config{
					ClientID:     "client-id",
					ClientSecret: "client-secret",
					Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: "https://accounts.example.com/token"},
					Scopes:       []string{"openid", "email"},
				},
			},
			"unset": {Name: "unset", Config: &oauth2.Config{}},
		},
		OAuthRedirectBaseURL: "https://kotoba.example.com/",
		Log:                  logger.NewNop(),
	})
	router := NewRouter(RouterConfig{Auth: h, Log: logger.NewNop()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/start", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.example.com", location.Host)
	assert.Equal(t, "https://kotoba.example.com/auth/google/callback", location.Query().Get("redirect_uri"))

	var state string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			state = c.Value
		}
	}
	assert.Equal(t, state, location.Query().Get("state"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/unset/start", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/providers", nil))
	assert.JSONEq(t, `[{"name":"google","label":"Google","url":"/auth/google/start"}]`, rec.Body.String())
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	h := NewAuthHandler(AuthHandlerConfig{
		OAuthProviders: map[string]OAuthProvider{
			"google": {Name: "google", Config: &oauth2.Config{ClientID: "id", ClientSecret: "secret"}},
		},
		Log: logger.NewNop(),
	})
	router := NewRouter(RouterConfig{Auth: h, Log: logger.NewNop()})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "expected"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
