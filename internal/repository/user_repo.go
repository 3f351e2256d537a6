package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kotoba/internal/database"
	"kotoba/internal/models"
)

// ErrOAuthAlreadyLinked is returned when a user is already linked to a provider
var ErrOAuthAlreadyLinked = errors.New("oauth provider already linked")

const userColumns = `id, email, password_hash, name, oauth_provider, oauth_subject, is_admin, created_at, updated_at`

// UserRepository handles database operations for users, sessions and reset tokens
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user. The first user ever created becomes admin.
func (r *UserRepository) CreateUser(ctx context.Context, email, passwordHash, name string) (*models.User, error) {
	var user *models.User
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		var userCount int
		if err := tx.GetContext(ctx, &userCount, "SELECT COUNT(*) FROM users"); err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		isAdmin := userCount == 0

		now := time.Now().UTC()
		id, err := tx.ExecReturningID(ctx, `
			INSERT INTO users (email, password_hash, name, is_admin, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, email, passwordHash, name, isAdmin, now, now)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		user = &models.User{
			ID:           id,
			Email:        email,
			PasswordHash: passwordHash,
			Name:         name,
			IsAdmin:      isAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) getUser(ctx context.Context, where string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, "SELECT "+userColumns+" FROM users WHERE "+where, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, "email = ?", email)
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, "id = ?", id)
}

// GetUserByOAuth retrieves a user by OAuth provider and subject
func (r *UserRepository) GetUserByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	return r.getUser(ctx, "oauth_provider = ? AND oauth_subject = ?", provider, subject)
}

// GetAllUsers retrieves all users, newest first
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

// LinkOAuthProvider links an existing user to an OAuth provider
func (r *UserRepository) LinkOAuthProvider(ctx context.Context, userID int64, provider, subject string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET oauth_provider = ?, oauth_subject = ?, updated_at = ?
		WHERE id = ? AND oauth_provider = ''
	`, provider, subject, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return ErrOAuthAlreadyLinked
	}
	return nil
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		passwordHash, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// CreateSession creates a new session for a user
func (r *UserRepository) CreateSession(ctx context.Context, sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, "INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		sessionID, userID, expiresAt.UTC(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// GetSession retrieves a session by ID
func (r *UserRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := r.db.GetContext(ctx, session, "SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?", sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session from the database
func (r *UserRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions removes every session belonging to a user
func (r *UserRepository) DeleteUserSessions(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and returns how many were removed
func (r *UserRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// CreatePasswordResetToken stores a new reset token
func (r *UserRepository) CreatePasswordResetToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (token, user_id, expires_at, used, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, token, userID, expiresAt.UTC(), false, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// GetPasswordResetToken retrieves a reset token
func (r *UserRepository) GetPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	resetToken := &models.PasswordResetToken{}
	err := r.db.GetContext(ctx, resetToken, `
		SELECT token, user_id, expires_at, created_at, used
		FROM password_reset_tokens
		WHERE token = ?
	`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return resetToken, nil
}

// MarkPasswordResetTokenAsUsed flags a token so it cannot be redeemed twice
func (r *UserRepository) MarkPasswordResetTokenAsUsed(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE password_reset_tokens SET used = ? WHERE token = ?", true, token); err != nil {
		return fmt.Errorf("failed to mark reset token as used: %w", err)
	}
	return nil
}

// DeleteUserPasswordResetTokens removes every reset token of a user
func (r *UserRepository) DeleteUserPasswordResetTokens(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	return nil
}

// DeleteExpiredPasswordResetTokens removes expired or used tokens
func (r *UserRepository) DeleteExpiredPasswordResetTokens(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE expires_at < ? OR used = ?",
		time.Now().UTC(), true)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return result.RowsAffected()
}
