package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_TYPE", "")
	t.Setenv("SESSION_STORE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "memory", cfg.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 2*time.Hour, cfg.LearningSessionTTL)
	assert.False(t, cfg.GoogleOAuthEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://kotoba@localhost/kotoba?sslmode=disable")
	t.Setenv("SESSION_DURATION", "30m")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, 30*time.Minute, cfg.SessionDuration)
	assert.True(t, cfg.GoogleOAuthEnabled())
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown database", env: map[string]string{"DB_TYPE": "oracle"}},
		{name: "postgres without url", env: map[string]string{"DB_TYPE": "postgres", "DATABASE_URL": ""}},
		{name: "redis without address", env: map[string]string{"SESSION_STORE": "redis", "REDIS_ADDR": ""}},
		{name: "unknown session store", env: map[string]string{"SESSION_STORE": "disk"}},
		{name: "short jwt secret", env: map[string]string{"JWT_SECRET": "short"}},
		{name: "default jwt secret in production", env: map[string]string{"APP_ENV": "production", "JWT_SECRET": "", "CSRF_SECRET": "a-real-csrf-secret-value"}},
		{name: "default csrf secret in production", env: map[string]string{"APP_ENV": "production", "JWT_SECRET": "a-real-jwt-secret-value", "CSRF_SECRET": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadProductionWithSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-jwt-secret-value")
	t.Setenv("CSRF_SECRET", "a-real-csrf-secret-value")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}

func TestGetDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_DURATION", "not-a-duration")
	assert.Equal(t, time.Minute, getDuration("SOME_DURATION", time.Minute))
}
