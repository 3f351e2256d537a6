package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("a-very-long-test-secret")

	raw, err := issuer.Issue(42, "session-abc", time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, "session-abc", claims.SessionID)
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer := NewTokenIssuer("a-very-long-test-secret")
	other := NewTokenIssuer("another-long-test-secret")

	expired, err := issuer.Issue(1, "sid", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	foreign, err := other.Issue(1, "sid", time.Now().Add(time.Hour))
	require.NoError(t, err)
	noSession, err := issuer.Issue(1, "", time.Now().Add(time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "expired", token: expired},
		{name: "wrong secret", token: foreign},
		{name: "missing session id", token: noSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
