package repository

import (
	"context"
	"fmt"

	"kotoba/internal/database"
	"kotoba/internal/models"
)

// HistoryRepository stores summaries of finished learning sessions.
// Records are only ever inserted. Deleting a set detaches its records
// (set_id becomes NULL) instead of removing them.
type HistoryRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *database.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// AppendHistory inserts a session summary and sets its ID
func (r *HistoryRepository) AppendHistory(ctx context.Context, record *models.LearningSessionHistory) error {
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO learning_session_history (user_id, set_id, words_learned, points, accuracy, time_spent, date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.UserID, database.NullID(record.SetID), record.WordsLearned, record.Points, record.Accuracy, record.TimeSpent, record.Date.UTC())
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	record.ID = id
	return nil
}

// ListHistory returns a user's history, newest first. setID of 0 means all
// sets; limit of 0 means no limit. Entries whose set was deleted keep their
// totals and report setId 0 with an empty set name.
func (r *HistoryRepository) ListHistory(ctx context.Context, userID, setID int64, limit int) ([]models.HistoryEntry, error) {
	query := `
		SELECT h.id, h.user_id, COALESCE(h.set_id, 0) AS set_id, h.words_learned, h.points, h.accuracy, h.time_spent, h.date,
		       COALESCE(s.name, '') AS set_name
		FROM learning_session_history h
		LEFT JOIN vocabulary_sets s ON s.id = h.set_id
		WHERE h.user_id = ?`
	args := []interface{}{userID}
	if setID > 0 {
		query += " AND h.set_id = ?"
		args = append(args, setID)
	}
	query += " ORDER BY h.date DESC, h.id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	entries := []models.HistoryEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return entries, nil
}

// GetAllHistory returns every history record, oldest first
func (r *HistoryRepository) GetAllHistory(ctx context.Context) ([]models.LearningSessionHistory, error) {
	records := []models.LearningSessionHistory{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, user_id, COALESCE(set_id, 0) AS set_id, words_learned, points, accuracy, time_spent, date
		FROM learning_session_history
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return records, nil
}

// Stats aggregates a user's history
func (r *HistoryRepository) Stats(ctx context.Context, userID int64) (*models.LearningStats, error) {
	stats := &models.LearningStats{}
	err := r.db.GetContext(ctx, stats, `
		SELECT COUNT(*) AS sessions,
		       COALESCE(SUM(points), 0) AS total_points,
		       COALESCE(SUM(words_learned), 0) AS words_learned,
		       COALESCE(AVG(accuracy), 0) AS average_accuracy,
		       COALESCE(SUM(time_spent), 0) AS time_spent
		FROM learning_session_history
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}
