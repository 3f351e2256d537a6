package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFToken(t *testing.T) {
	gen := NewCSRFGenerator("csrf-secret-for-tests")

	token, err := gen.GenerateToken("session-1")
	require.NoError(t, err)

	again, err := gen.GenerateToken("session-1")
	require.NoError(t, err)
	assert.Equal(t, token, again, "tokens are deterministic per session")

	assert.True(t, gen.ValidateToken("session-1", token))
	assert.False(t, gen.ValidateToken("session-2", token))
	assert.False(t, gen.ValidateToken("session-1", ""))
	assert.False(t, gen.ValidateToken("", token))

	_, err = gen.GenerateToken("")
	assert.Error(t, err)
}

func TestCSRFValidateRequest(t *testing.T) {
	gen := NewCSRFGenerator("csrf-secret-for-tests")
	token, err := gen.GenerateToken("session-1")
	require.NoError(t, err)

	get := httptest.NewRequest(http.MethodGet, "/api/sets", nil)
	assert.True(t, gen.ValidateRequest(get, "session-1"))

	post := httptest.NewRequest(http.MethodPost, "/api/sets", nil)
	assert.False(t, gen.ValidateRequest(post, "session-1"))

	post.Header.Set(CSRFHeaderName, token)
	assert.True(t, gen.ValidateRequest(post, "session-1"))
}
