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

const (
	setColumns  = `id, user_id, name, description, total_words, created_at, updated_at`
	wordColumns = `id, set_id, kanji, kana, meaning, notes, difficulty, created_at`
)

// SetRepository handles database operations for vocabulary sets and words.
// Word inserts and deletes update the set's total_words counter in the same
// transaction.
type SetRepository struct {
	db *database.DB
}

// NewSetRepository creates a new set repository
func NewSetRepository(db *database.DB) *SetRepository {
	return &SetRepository{db: db}
}

// CreateSet creates a new, empty vocabulary set
func (r *SetRepository) CreateSet(ctx context.Context, userID int64, name, description string) (*models.VocabularySet, error) {
	now := time.Now().UTC()
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO vocabulary_sets (user_id, name, description, total_words, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, userID, name, description, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create set: %w", err)
	}

	return &models.VocabularySet{
		ID:          id,
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetSetByID retrieves a set by ID
func (r *SetRepository) GetSetByID(ctx context.Context, setID int64) (*models.VocabularySet, error) {
	set := &models.VocabularySet{}
	err := r.db.GetContext(ctx, set, "SELECT "+setColumns+" FROM vocabulary_sets WHERE id = ?", setID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get set: %w", err)
	}
	return set, nil
}

// GetUserSets retrieves all sets owned by a user, most recently updated first
func (r *SetRepository) GetUserSets(ctx context.Context, userID int64) ([]models.VocabularySet, error) {
	sets := []models.VocabularySet{}
	err := r.db.SelectContext(ctx, &sets, "SELECT "+setColumns+" FROM vocabulary_sets WHERE user_id = ? ORDER BY updated_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets: %w", err)
	}
	return sets, nil
}

// GetAllSets retrieves every set in the database
func (r *SetRepository) GetAllSets(ctx context.Context) ([]models.VocabularySet, error) {
	sets := []models.VocabularySet{}
	if err := r.db.SelectContext(ctx, &sets, "SELECT "+setColumns+" FROM vocabulary_sets ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to query sets: %w", err)
	}
	return sets, nil
}

// UpdateSet changes a set's name and description
func (r *SetRepository) UpdateSet(ctx context.Context, setID int64, name, description string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE vocabulary_sets SET name = ?, description = ?, updated_at = ? WHERE id = ?",
		name, description, time.Now().UTC(), setID)
	if err != nil {
		return fmt.Errorf("failed to update set: %w", err)
	}
	return nil
}

// DeleteSet deletes a set; its words and history go with it
func (r *SetRepository) DeleteSet(ctx context.Context, setID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM vocabulary_sets WHERE id = ?", setID); err != nil {
		return fmt.Errorf("failed to delete set: %w", err)
	}
	return nil
}

// AddWord inserts a word and increments the set's counter
func (r *SetRepository) AddWord(ctx context.Context, setID int64, word models.VocabularyWord) (*models.VocabularyWord, error) {
	var created *models.VocabularyWord
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		w, err := insertWord(ctx, tx, setID, word)
		if err != nil {
			return err
		}
		if err := adjustTotal(ctx, tx, setID, 1); err != nil {
			return err
		}
		created = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AddWords inserts a batch of words and bumps the counter once, all in one transaction
func (r *SetRepository) AddWords(ctx context.Context, setID int64, words []models.VocabularyWord) (int, error) {
	if len(words) == 0 {
		return 0, nil
	}
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, word := range words {
			if _, err := insertWord(ctx, tx, setID, word); err != nil {
				return err
			}
		}
		return adjustTotal(ctx, tx, setID, len(words))
	})
	if err != nil {
		return 0, err
	}
	return len(words), nil
}

func insertWord(ctx context.Context, tx *database.Tx, setID int64, word models.VocabularyWord) (*models.VocabularyWord, error) {
	now := time.Now().UTC()
	id, err := tx.ExecReturningID(ctx, `
		INSERT INTO vocabulary_words (set_id, kanji, kana, meaning, notes, difficulty, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, setID, word.Kanji, word.Kana, word.Meaning, word.Notes, word.Difficulty, now)
	if err != nil {
		return nil, fmt.Errorf("failed to add word: %w", err)
	}

	word.ID = id
	word.SetID = setID
	word.CreatedAt = now
	return &word, nil
}

func adjustTotal(ctx context.Context, tx *database.Tx, setID int64, delta int) error {
	_, err := tx.ExecContext(ctx, "UPDATE vocabulary_sets SET total_words = total_words + ?, updated_at = ? WHERE id = ?",
		delta, time.Now().UTC(), setID)
	if err != nil {
		return fmt.Errorf("failed to update word count: %w", err)
	}
	return nil
}

// GetWords retrieves all words of a set in insertion order
func (r *SetRepository) GetWords(ctx context.Context, setID int64) ([]models.VocabularyWord, error) {
	words := []models.VocabularyWord{}
	err := r.db.SelectContext(ctx, &words, "SELECT "+wordColumns+" FROM vocabulary_words WHERE set_id = ? ORDER BY id", setID)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	return words, nil
}

// GetSetWords retrieves the words of a set owned by userID. A set that does
// not exist or belongs to someone else yields an empty list.
func (r *SetRepository) GetSetWords(ctx context.Context, userID, setID int64) ([]models.VocabularyWord, error) {
	words := []models.VocabularyWord{}
	err := r.db.SelectContext(ctx, &words, `
		SELECT w.id, w.set_id, w.kanji, w.kana, w.meaning, w.notes, w.difficulty, w.created_at
		FROM vocabulary_words w
		JOIN vocabulary_sets s ON s.id = w.set_id
		WHERE s.id = ? AND s.user_id = ?
		ORDER BY w.id
	`, setID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query set words: %w", err)
	}
	return words, nil
}

// GetAllWords retrieves every word in the database
func (r *SetRepository) GetAllWords(ctx context.Context) ([]models.VocabularyWord, error) {
	words := []models.VocabularyWord{}
	if err := r.db.SelectContext(ctx, &words, "SELECT "+wordColumns+" FROM vocabulary_words ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	return words, nil
}

// GetWordByID retrieves a word by ID
func (r *SetRepository) GetWordByID(ctx context.Context, wordID int64) (*models.VocabularyWord, error) {
	word := &models.VocabularyWord{}
	err := r.db.GetContext(ctx, word, "SELECT "+wordColumns+" FROM vocabulary_words WHERE id = ?", wordID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word: %w", err)
	}
	return word, nil
}

// UpdateWord rewrites a word's fields. The counter is unaffected.
func (r *SetRepository) UpdateWord(ctx context.Context, word models.VocabularyWord) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE vocabulary_words
		SET kanji = ?, kana = ?, meaning = ?, notes = ?, difficulty = ?
		WHERE id = ?
	`, word.Kanji, word.Kana, word.Meaning, word.Notes, word.Difficulty, word.ID)
	if err != nil {
		return fmt.Errorf("failed to update word: %w", err)
	}
	return nil
}

// DeleteWord removes a word and decrements the set's counter. It reports
// whether a word was actually removed.
func (r *SetRepository) DeleteWord(ctx context.Context, setID, wordID int64) (bool, error) {
	var deleted bool
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM vocabulary_words WHERE id = ? AND set_id = ?", wordID, setID)
		if err != nil {
			return fmt.Errorf("failed to delete word: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read delete result: %w", err)
		}
		if n == 0 {
			return nil
		}
		deleted = true
		return adjustTotal(ctx, tx, setID, -int(n))
	})
	return deleted, err
}

// RecountSet recomputes a set's counter from the words table and returns it
func (r *SetRepository) RecountSet(ctx context.Context, setID int64) (int, error) {
	var total int
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := tx.GetContext(ctx, &total, "SELECT COUNT(*) FROM vocabulary_words WHERE set_id = ?", setID); err != nil {
			return fmt.Errorf("failed to count words: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE vocabulary_sets SET total_words = ? WHERE id = ?", total, setID); err != nil {
			return fmt.Errorf("failed to store word count: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

type setCount struct {
	ID     int64 `db:"id"`
	Stored int   `db:"total_words"`
	Actual int   `db:"actual"`
}

// RecountAll repairs every set whose counter has drifted and returns how many
// sets were corrected.
func (r *SetRepository) RecountAll(ctx context.Context) (int, error) {
	var repaired int
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		var counts []setCount
		err := tx.SelectContext(ctx, &counts, `
			SELECT s.id, s.total_words, COUNT(w.id) AS actual
			FROM vocabulary_sets s
			LEFT JOIN vocabulary_words w ON w.set_id = s.id
			GROUP BY s.id, s.total_words
		`)
		if err != nil {
			return fmt.Errorf("failed to count words: %w", err)
		}

		for _, c := range counts {
			if c.Stored == c.Actual {
				continue
			}
			if _, err := tx.ExecContext(ctx, "UPDATE vocabulary_sets SET total_words = ? WHERE id = ?", c.Actual, c.ID); err != nil {
				return fmt.Errorf("failed to store word count for set %d: %w", c.ID, err)
			}
			repaired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return repaired, nil
}
