package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"kotoba/internal/validation"
)

const (
	defaultJWTSecret  = "change-me-in-production-please"
	defaultCSRFSecret = "change-me-too-in-production"
)

// Config holds application configuration
type Config struct {
	ServerPort  string `validate:"required,numeric"`
	Environment string `validate:"oneof=development production test"`

	DatabaseType   string `validate:"oneof=sqlite sqlite3 postgres postgresql mysql"`
	DatabasePath   string `validate:"required_if=DatabaseType sqlite"`
	DatabaseURL    string `validate:"required_if=DatabaseType postgres,required_if=DatabaseType postgresql,required_if=DatabaseType mysql"`
	MigrationsPath string `validate:"required"`

	SessionDuration time.Duration `validate:"min=1m"`
	JWTSecret       string        `validate:"required,min=16"`
	CSRFSecret      string        `validate:"required,min=16"`

	// Where in-flight learning sessions live
	SessionStore       string        `validate:"oneof=memory redis"`
	RedisAddr          string        `validate:"required_if=SessionStore redis"`
	LearningSessionTTL time.Duration `validate:"min=1m"`

	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string

	SESRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
	EmailDebug   bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is honoured if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:  getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),

		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./kotoba.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		SessionDuration: getDuration("SESSION_DURATION", 24*time.Hour),
		JWTSecret:       getEnv("JWT_SECRET", defaultJWTSecret),
		CSRFSecret:      getEnv("CSRF_SECRET", defaultCSRFSecret),

		SessionStore:       getEnv("SESSION_STORE", "memory"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		LearningSessionTTL: getDuration("LEARNING_SESSION_TTL", 2*time.Hour),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),

		SESRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Kotoba"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),
		EmailDebug:   getBool("EMAIL_DEBUG", false),
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, err
	}
	if err := cfg.checkSecrets(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkSecrets refuses the built-in signing secrets in production
func (c *Config) checkSecrets() error {
	if c.Environment != "production" {
		return nil
	}
	if c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.CSRFSecret == defaultCSRFSecret {
		return fmt.Errorf("CSRF_SECRET must be set in production")
	}
	return nil
}

// GoogleOAuthEnabled reports whether Google login is configured
func (c *Config) GoogleOAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
