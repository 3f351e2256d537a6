package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"kotoba/internal/config"
	"kotoba/internal/database"
	"kotoba/internal/handlers"
	"kotoba/internal/learning"
	"kotoba/internal/logger"
	"kotoba/internal/repository"
	"kotoba/internal/scheduler"
	"kotoba/internal/security"
	"kotoba/internal/service"
	"kotoba/internal/sessionstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()
	log.Info("database connection established", "type", db.Dialect.Name())

	applied, err := db.RunMigrations(cfg.MigrationsPath)
	if err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}
	log.Info("migrations completed", "applied", len(applied))

	store, closeStore, err := newSessionStore(cfg, log)
	if err != nil {
		log.Fatal("failed to create learning session store", "error", err)
	}
	defer closeStore()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	setRepo := repository.NewSetRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	// Services
	emailService, err := service.NewEmailService(context.Background(), cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug, log)
	if err != nil {
		log.Fatal("failed to initialize email service", "error", err)
	}
	authService := service.NewAuthService(userRepo, emailService, security.NewTokenIssuer(cfg.JWTSecret), cfg.SessionDuration, log)
	setService := service.NewSetService(setRepo, log)
	learningService := service.NewLearningService(service.LearningServiceConfig{
		Words:     setRepo,
		History:   historyRepo,
		Store:     store,
		Persister: learning.NewPersister(historyRepo, log.With("component", "Persister")),
		IdleTTL:   cfg.LearningSessionTTL,
		Log:       log,
	})
	backupService := service.NewBackupService(db, log)

	if repaired, err := setService.RecountAll(context.Background()); err != nil {
		log.Warn("failed to reconcile word counters", "error", err)
	} else if repaired > 0 {
		log.Info("word counters reconciled at startup", "sets", repaired)
	}

	// Handlers
	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	authLimiter := security.NewRateLimiter(10, time.Minute)
	router := handlers.NewRouter(handlers.RouterConfig{
		Middleware: handlers.NewMiddleware(authService, csrf, log),
		Auth: handlers.NewAuthHandler(handlers.AuthHandlerConfig{
			AuthService:          authService,
			CSRF:                 csrf,
			OAuthProviders:       oauthProviders(cfg),
			OAuthRedirectBaseURL: cfg.OAuthRedirectBaseURL,
			AppBaseURL:           cfg.AppBaseURL,
			Log:                  log,
		}),
		Sets:        handlers.NewSetHandler(setService, log),
		Learning:    handlers.NewLearningHandler(learningService, log),
		Admin:       handlers.NewAdminHandler(authService, setService, backupService, log),
		AuthLimiter: authLimiter,
		Log:         log,
	})

	// Housekeeping
	jobs := scheduler.New(log, scheduler.DefaultTasks(authService, learningService, authLimiter)...)
	if err := jobs.Start(); err != nil {
		log.Fatal("failed to start scheduler", "error", err)
	}
	defer jobs.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func newSessionStore(cfg *config.Config, log *logger.Logger) (sessionstore.Store, func(), error) {
	if cfg.SessionStore == "redis" {
		store, err := sessionstore.NewRedisStore(cfg.RedisAddr, cfg.LearningSessionTTL, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("learning sessions stored in redis", "addr", cfg.RedisAddr)
		return store, func() { _ = store.Close() }, nil
	}
	log.Info("learning sessions stored in memory")
	return sessionstore.NewMemoryStore(), func() {}, nil
}

func oauthProviders(cfg *config.Config) map[string]handlers.OAuthProvider {
	return map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
	}
}
