package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSessionIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateSessionID()
		assert.False(t, seen[id], "duplicate session id %s", id)
		seen[id] = true
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{header: "bearer   token  ", want: "token"},
		{header: "Basic dXNlcjpwYXNz", want: ""},
		{header: "", want: ""},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, BearerToken(r), "header %q", tt.header)
	}
}

func TestCreateSessionCookieSecureFlag(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	cookie := CreateSessionCookie(plain, SessionCookieName, "value", time.Now().Add(time.Hour))
	assert.False(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)

	proxied := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	assert.True(t, CreateSessionCookie(proxied, SessionCookieName, "value", time.Now()).Secure)

	deleted := CreateDeleteCookie(plain, SessionCookieName)
	assert.Equal(t, -1, deleted.MaxAge)
}
