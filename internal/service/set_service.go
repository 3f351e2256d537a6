package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"kotoba/internal/importer"
	"kotoba/internal/logger"
	"kotoba/internal/models"
	"kotoba/internal/repository"
	"kotoba/internal/validation"
)

var (
	ErrSetNotFound  = errors.New("set not found")
	ErrWordNotFound = errors.New("word not found")
	ErrNothingToAdd = errors.New("no valid words to import")
)

// WordInput carries the editable fields of a word. A nil Difficulty means
// the default.
type WordInput struct {
	Kanji      string `json:"kanji"`
	Kana       string `json:"kana"`
	Meaning    string `json:"meaning"`
	Notes      string `json:"notes"`
	Difficulty *int   `json:"difficulty"`
}

func (in WordInput) toWord() (models.VocabularyWord, error) {
	difficulty := validation.DefaultDifficulty
	if in.Difficulty != nil {
		difficulty = *in.Difficulty
	}
	word := models.VocabularyWord{
		Kanji:      strings.TrimSpace(in.Kanji),
		Kana:       strings.TrimSpace(in.Kana),
		Meaning:    strings.TrimSpace(in.Meaning),
		Notes:      strings.TrimSpace(in.Notes),
		Difficulty: difficulty,
	}
	if err := validation.ValidateWord(word.Kanji, word.Kana, word.Meaning, word.Notes, word.Difficulty); err != nil {
		return word, err
	}
	return word, nil
}

// ImportResult reports what a spreadsheet import did
type ImportResult struct {
	Imported   int                 `json:"imported"`
	Rows       int                 `json:"rows"`
	Errors     []importer.RowError `json:"errors"`
	TotalWords int                 `json:"totalWords"`
}

// SetService handles vocabulary set and word management. Every operation is
// scoped to the calling user: sets owned by someone else look missing.
type SetService struct {
	sets *repository.SetRepository
	log  *logger.Logger
}

// NewSetService creates a new set service
func NewSetService(sets *repository.SetRepository, log *logger.Logger) *SetService {
	return &SetService{sets: sets, log: log.With("component", "SetService")}
}

// ListSets returns the user's sets
func (s *SetService) ListSets(ctx context.Context, userID int64) ([]models.VocabularySet, error) {
	return s.sets.GetUserSets(ctx, userID)
}

// CreateSet creates an empty set
func (s *SetService) CreateSet(ctx context.Context, userID int64, name, description string) (*models.VocabularySet, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if err := validation.ValidateSet(name, description); err != nil {
		return nil, err
	}
	return s.sets.CreateSet(ctx, userID, name, description)
}

// GetSet returns a set owned by userID
func (s *SetService) GetSet(ctx context.Context, userID, setID int64) (*models.VocabularySet, error) {
	set, err := s.sets.GetSetByID(ctx, setID)
	if err != nil {
		return nil, err
	}
	if set == nil || set.UserID != userID {
		return nil, ErrSetNotFound
	}
	return set, nil
}

// UpdateSet renames a set or changes its description
func (s *SetService) UpdateSet(ctx context.Context, userID, setID int64, name, description string) (*models.VocabularySet, error) {
	set, err := s.GetSet(ctx, userID, setID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if err := validation.ValidateSet(name, description); err != nil {
		return nil, err
	}
	if err := s.sets.UpdateSet(ctx, set.ID, name, description); err != nil {
		return nil, err
	}
	return s.sets.GetSetByID(ctx, set.ID)
}

// DeleteSet removes a set with its words and history
func (s *SetService) DeleteSet(ctx context.Context, userID, setID int64) error {
	if _, err := s.GetSet(ctx, userID, setID); err != nil {
		return err
	}
	return s.sets.DeleteSet(ctx, setID)
}

// ListWords returns the words of a set
func (s *SetService) ListWords(ctx context.Context, userID, setID int64) ([]models.VocabularyWord, error) {
	if _, err := s.GetSet(ctx, userID, setID); err != nil {
		return nil, err
	}
	return s.sets.GetWords(ctx, setID)
}

// AddWord validates and stores a new word
func (s *SetService) AddWord(ctx context.Context, userID, setID int64, in WordInput) (*models.VocabularyWord, error) {
	if _, err := s.GetSet(ctx, userID, setID); err != nil {
		return nil, err
	}
	word, err := in.toWord()
	if err != nil {
		return nil, err
	}
	return s.sets.AddWord(ctx, setID, word)
}

func (s *SetService) ownedWord(ctx context.Context, userID, setID, wordID int64) (*models.VocabularyWord, error) {
	if _, err := s.GetSet(ctx, userID, setID); err != nil {
		return nil, err
	}
	word, err := s.sets.GetWordByID(ctx, wordID)
	if err != nil {
		return nil, err
	}
	if word == nil || word.SetID != setID {
		return nil, ErrWordNotFound
	}
	return word, nil
}

// UpdateWord replaces a word's fields
func (s *SetService) UpdateWord(ctx context.Context, userID, setID, wordID int64, in WordInput) (*models.VocabularyWord, error) {
	existing, err := s.ownedWord(ctx, userID, setID, wordID)
	if err != nil {
		return nil, err
	}
	word, err := in.toWord()
	if err != nil {
		return nil, err
	}
	word.ID = existing.ID
	word.SetID = existing.SetID
	word.CreatedAt = existing.CreatedAt

	if err := s.sets.UpdateWord(ctx, word); err != nil {
		return nil, err
	}
	return &word, nil
}

// DeleteWord removes a word from a set
func (s *SetService) DeleteWord(ctx context.Context, userID, setID, wordID int64) error {
	if _, err := s.ownedWord(ctx, userID, setID, wordID); err != nil {
		return err
	}
	deleted, err := s.sets.DeleteWord(ctx, setID, wordID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrWordNotFound
	}
	return nil
}

// ImportWords adds every valid row of a spreadsheet to a set in a single
// transaction. Invalid rows are reported, not fatal.
func (s *SetService) ImportWords(ctx context.Context, userID, setID int64, filename string, r io.Reader) (*ImportResult, error) {
	if _, err := s.GetSet(ctx, userID, setID); err != nil {
		return nil, err
	}

	parsed, err := importer.Parse(filename, r)
	if err != nil {
		return nil, validation.ValidationError{Field: "file", Message: err.Error()}
	}
	if len(parsed.Words) == 0 {
		return &ImportResult{Rows: parsed.Rows, Errors: parsed.Errors}, ErrNothingToAdd
	}

	imported, err := s.sets.AddWords(ctx, setID, parsed.Words)
	if err != nil {
		return nil, fmt.Errorf("failed to import words: %w", err)
	}

	set, err := s.sets.GetSetByID(ctx, setID)
	if err != nil {
		return nil, err
	}

	s.log.Info("words imported", "set_id", setID, "imported", imported, "rejected", len(parsed.Errors))
	return &ImportResult{
		Imported:   imported,
		Rows:       parsed.Rows,
		Errors:     parsed.Errors,
		TotalWords: set.TotalWords,
	}, nil
}

// RecountSet recomputes one set's word counter
func (s *SetService) RecountSet(ctx context.Context, userID, setID int64) (int, error) {
	if _, err := s.GetSet(ctx, userID, setID); err != nil {
		return 0, err
	}
	return s.sets.RecountSet(ctx, setID)
}

// RecountAll repairs drifted counters across every set
func (s *SetService) RecountAll(ctx context.Context) (int, error) {
	repaired, err := s.sets.RecountAll(ctx)
	if err != nil {
		return 0, err
	}
	if repaired > 0 {
		s.log.Warn("word counters repaired", "sets", repaired)
	}
	return repaired, nil
}
