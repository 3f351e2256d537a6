package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"kotoba/internal/logger"
	"kotoba/internal/models"
	"kotoba/internal/repository"
	"kotoba/internal/security"
	"kotoba/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrResetTokenUsed     = errors.New("this reset link has already been used")
	ErrResetTokenExpired  = errors.New("this reset link has expired")
)

const resetTokenTTL = time.Hour

// Mailer sends the account emails
type Mailer interface {
	IsEnabled() bool
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error
}

// LoginResult is a freshly created auth session with its bearer token
type LoginResult struct {
	Session *models.Session
	User    *models.User
	Token   string
}

// AuthService handles authentication business logic
type AuthService struct {
	userRepo        *repository.UserRepository
	mailer          Mailer
	tokens          *security.TokenIssuer
	sessionDuration time.Duration
	log             *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, mailer Mailer, tokens *security.TokenIssuer, sessionDuration time.Duration, log *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		mailer:          mailer,
		tokens:          tokens,
		sessionDuration: sessionDuration,
		log:             log.With("component", "AuthService"),
	}
}

// Register creates a new user account and sends a welcome email
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", "user_id", user.ID, "admin", user.IsAdmin)
	s.sendWelcome(ctx, user)
	return user, nil
}

func (s *AuthService) sendWelcome(ctx context.Context, user *models.User) {
	if s.mailer == nil || !s.mailer.IsEnabled() {
		return
	}
	if err := s.mailer.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
		s.log.Warn("failed to send welcome email", "user_id", user.ID, "error", err)
	}
}

// Login authenticates a user by password and creates a session
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

// OAuthLogin authenticates or creates a user using an OAuth provider. An
// existing password account with the same email is linked to the provider.
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*LoginResult, error) {
	if provider == "" || subject == "" {
		return nil, errors.New("missing oauth provider information")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing user: %w", err)
		}

		if existingUser != nil {
			if existingUser.OAuthProvider != "" {
				return nil, ErrEmailTaken
			}
			if err := s.userRepo.LinkOAuthProvider(ctx, existingUser.ID, provider, subject); err != nil {
				return nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			user = existingUser
		} else {
			if name == "" {
				name = strings.Split(email, "@")[0]
			}
			newUser, err := s.userRepo.CreateUser(ctx, email, "", name)
			if err != nil {
				return nil, fmt.Errorf("failed to create oauth user: %w", err)
			}
			if err := s.userRepo.LinkOAuthProvider(ctx, newUser.ID, provider, subject); err != nil {
				return nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			newUser.OAuthProvider = provider
			newUser.OAuthSubject = subject
			user = newUser
			s.log.Info("user registered via oauth", "user_id", user.ID, "provider", provider)
			s.sendWelcome(ctx, user)
		}
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*LoginResult, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)

	session, err := s.userRepo.CreateSession(ctx, sessionID, user.ID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, session.ID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &LoginResult{Session: session, User: user, Token: token}, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// Authenticate resolves a bearer token to its user and auth session ID. The
// token must be well formed and its session must still exist, so logging out
// revokes outstanding tokens.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (*models.User, string, error) {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return nil, "", err
	}

	user, err := s.ValidateSession(ctx, claims.SessionID)
	if err != nil {
		return nil, "", err
	}

	tokenUserID, err := claims.UserID()
	if err != nil || tokenUserID != user.ID {
		return nil, "", security.ErrInvalidToken
	}
	return user, claims.SessionID, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.userRepo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// ListUsers returns every account
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAllUsers(ctx)
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.userRepo.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}

// CleanupExpiredPasswordResetTokens removes expired and used reset tokens
func (s *AuthService) CleanupExpiredPasswordResetTokens(ctx context.Context) (int64, error) {
	n, err := s.userRepo.DeleteExpiredPasswordResetTokens(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup reset tokens: %w", err)
	}
	return n, nil
}

// RequestPasswordReset creates a password reset token and emails it. Unknown
// addresses and OAuth-only accounts succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.HasPassword() {
		return nil
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	_ = s.userRepo.DeleteUserPasswordResetTokens(ctx, user.ID)

	if err := s.userRepo.CreatePasswordResetToken(ctx, token, user.ID, time.Now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if s.mailer != nil && s.mailer.IsEnabled() {
		if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Name, token); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}
	return nil
}

// ResetPassword sets a new password using a valid token and signs the user
// out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	resetToken, err := s.userRepo.GetPasswordResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}
	if resetToken == nil {
		return ErrInvalidResetToken
	}
	if resetToken.Used {
		return ErrResetTokenUsed
	}
	if resetToken.IsExpired() {
		return ErrResetTokenExpired
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, resetToken.UserID, passwordHash); err != nil {
		return err
	}
	if err := s.userRepo.MarkPasswordResetTokenAsUsed(ctx, token); err != nil {
		return err
	}
	if err := s.userRepo.DeleteUserSessions(ctx, resetToken.UserID); err != nil {
		return err
	}

	s.log.Info("password reset", "user_id", resetToken.UserID)
	return nil
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
