package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"kotoba/internal/database"
	"kotoba/internal/logger"
	"kotoba/internal/models"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string                          `json:"version"`
	ExportedAt   time.Time                       `json:"exported_at"`
	DatabaseType string                          `json:"database_type"`
	Users        []UserBackup                    `json:"users"`
	Sets         []models.VocabularySet          `json:"sets"`
	Words        []models.VocabularyWord         `json:"words"`
	History      []models.LearningSessionHistory `json:"history"`
}

// UserBackup represents a user record for backup, password hash included
type UserBackup struct {
	ID            int64     `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"password_hash"`
	Name          string    `db:"name" json:"name"`
	OAuthProvider string    `db:"oauth_provider" json:"oauth_provider"`
	OAuthSubject  string    `db:"oauth_subject" json:"oauth_subject"`
	IsAdmin       bool      `db:"is_admin" json:"is_admin"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db  *database.DB
	log *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *logger.Logger) *BackupService {
	return &BackupService{db: db, log: log.With("component", "BackupService")}
}

// Export reads every table into a BackupData
func (s *BackupService) Export(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.Name(),
		Users:        []UserBackup{},
		Sets:         []models.VocabularySet{},
		Words:        []models.VocabularyWord{},
		History:      []models.LearningSessionHistory{},
	}

	queries := []struct {
		name  string
		dest  interface{}
		query string
	}{
		{"users", &backup.Users, "SELECT id, email, password_hash, name, oauth_provider, oauth_subject, is_admin, created_at, updated_at FROM users ORDER BY id"},
		{"sets", &backup.Sets, "SELECT id, user_id, name, description, total_words, created_at, updated_at FROM vocabulary_sets ORDER BY id"},
		{"words", &backup.Words, "SELECT id, set_id, kanji, kana, meaning, notes, difficulty, created_at FROM vocabulary_words ORDER BY id"},
		{"history", &backup.History, "SELECT id, user_id, COALESCE(set_id, 0) AS set_id, words_learned, points, accuracy, time_spent, date FROM learning_session_history ORDER BY id"},
	}
	for _, q := range queries {
		if err := s.db.SelectContext(ctx, q.dest, q.query); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", q.name, err)
		}
	}

	s.log.Info("database exported",
		"users", len(backup.Users),
		"sets", len(backup.Sets),
		"words", len(backup.Words),
		"history", len(backup.History),
	)
	return backup, nil
}

// ExportToWriter writes an indented JSON backup to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.Export(ctx)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// ImportFromReader restores a JSON backup, keeping the original IDs. The
// whole import runs in one transaction.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	s.log.Info("importing backup", "exported_at", backup.ExportedAt, "source", backup.DatabaseType)

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, u := range backup.Users {
			_, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, is_admin, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				u.ID, u.Email, u.PasswordHash, u.Name, u.OAuthProvider, u.OAuthSubject, u.IsAdmin, u.CreatedAt, u.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to import user %d: %w", u.ID, err)
			}
		}
		for _, set := range backup.Sets {
			_, err := tx.ExecContext(ctx, `INSERT INTO vocabulary_sets (id, user_id, name, description, total_words, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				set.ID, set.UserID, set.Name, set.Description, set.TotalWords, set.CreatedAt, set.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to import set %d: %w", set.ID, err)
			}
		}
		for _, w := range backup.Words {
			_, err := tx.ExecContext(ctx, `INSERT INTO vocabulary_words (id, set_id, kanji, kana, meaning, notes, difficulty, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				w.ID, w.SetID, w.Kanji, w.Kana, w.Meaning, w.Notes, w.Difficulty, w.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to import word %d: %w", w.ID, err)
			}
		}
		for _, h := range backup.History {
			_, err := tx.ExecContext(ctx, `INSERT INTO learning_session_history (id, user_id, set_id, words_learned, points, accuracy, time_spent, date)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				h.ID, h.UserID, database.NullID(h.SetID), h.WordsLearned, h.Points, h.Accuracy, h.TimeSpent, h.Date)
			if err != nil {
				return fmt.Errorf("failed to import history %d: %w", h.ID, err)
			}
		}
		return s.resetSequences(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("backup imported",
		"users", len(backup.Users),
		"sets", len(backup.Sets),
		"words", len(backup.Words),
		"history", len(backup.History),
	)
	return &backup, nil
}

// resetSequences moves PostgreSQL id sequences past the imported IDs.
// SQLite and MySQL advance their counters on explicit inserts.
func (s *BackupService) resetSequences(ctx context.Context, tx *database.Tx) error {
	if s.db.Dialect.Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"users", "vocabulary_sets", "vocabulary_words", "learning_session_history"} {
		query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s", table, table)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}
	return nil
}

// Clear deletes all data, children first
func (s *BackupService) Clear(ctx context.Context) error {
	tables := []string{
		"learning_session_history",
		"vocabulary_words",
		"vocabulary_sets",
		"password_reset_tokens",
		"sessions",
		"users",
	}
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			s.log.Info("cleared table", "table", table)
		}
		return nil
	})
}
