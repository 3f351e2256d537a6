package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"kotoba/internal/learning"
	"kotoba/internal/logger"
	"kotoba/internal/models"
	"kotoba/internal/sessionstore"
)

var (
	ErrNoVocabulary            = errors.New("set has no vocabulary")
	ErrLearningSessionNotFound = errors.New("learning session not found")
)

// WordSource fetches the words of a set owned by a user
type WordSource interface {
	GetSetWords(ctx context.Context, userID, setID int64) ([]models.VocabularyWord, error)
}

// HistoryReader reads persisted session summaries
type HistoryReader interface {
	ListHistory(ctx context.Context, userID, setID int64, limit int) ([]models.HistoryEntry, error)
	Stats(ctx context.Context, userID int64) (*models.LearningStats, error)
}

// LearningService runs learning sessions across requests. Sessions live in
// a sessionstore.Store between calls.
type LearningService struct {
	words     WordSource
	history   HistoryReader
	store     sessionstore.Store
	persister *learning.Persister
	shuffler  learning.Shuffler
	idleTTL   time.Duration
	now       func() time.Time
	log       *logger.Logger

	// mu serialises load-modify-save cycles on the store
	mu sync.Mutex
}

// LearningServiceConfig wires a LearningService
type LearningServiceConfig struct {
	Words     WordSource
	History   HistoryReader
	Store     sessionstore.Store
	Persister *learning.Persister
	Shuffler  learning.Shuffler
	IdleTTL   time.Duration
	Now       func() time.Time
	Log       *logger.Logger
}

// NewLearningService creates a new learning service
func NewLearningService(cfg LearningServiceConfig) *LearningService {
	if cfg.Shuffler == nil {
		cfg.Shuffler = learning.DefaultShuffler
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LearningService{
		words:     cfg.Words,
		history:   cfg.History,
		store:     cfg.Store,
		persister: cfg.Persister,
		shuffler:  cfg.Shuffler,
		idleTTL:   cfg.IdleTTL,
		now:       cfg.Now,
		log:       cfg.Log.With("component", "LearningService"),
	}
}

// StartSession samples a set's words into a new session. A set without
// words, or whose words cannot be fetched, yields ErrNoVocabulary.
func (s *LearningService) StartSession(ctx context.Context, userID, setID int64) (*learning.Session, error) {
	words, err := s.words.GetSetWords(ctx, userID, setID)
	if err != nil {
		s.log.Error("failed to fetch words", "user_id", userID, "set_id", setID, "error", err)
		words = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := learning.NewSession(uuid.NewString(), userID, setID, words, s.shuffler, s.now())
	if errors.Is(err, learning.ErrNoWords) {
		return nil, ErrNoVocabulary
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.log.Debug("learning session started", "session_id", session.ID, "user_id", userID, "set_id", setID, "words", len(session.Words))
	return session, nil
}

// load fetches a session the user owns. Callers hold s.mu.
func (s *LearningService) load(ctx context.Context, userID int64, sessionID string) (*learning.Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, sessionstore.ErrNotFound) {
		return nil, ErrLearningSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrLearningSessionNotFound
	}
	return session, nil
}

// GetSession returns the current state of a session
func (s *LearningService) GetSession(ctx context.Context, userID int64, sessionID string) (*learning.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, userID, sessionID)
}

// Answer submits an option for the current word and reveals the result
func (s *LearningService) Answer(ctx context.Context, userID int64, sessionID, option string) (*learning.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, false, err
	}

	correct, err := session.Answer(option, s.now())
	if err != nil {
		return nil, false, err
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, false, fmt.Errorf("failed to store session: %w", err)
	}
	return session, correct, nil
}

// Next advances past a revealed answer. When the last word has been done the
// session is persisted, removed from the store and its summary returned.
func (s *LearningService) Next(ctx context.Context, userID int64, sessionID string) (*learning.Session, *learning.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if err := session.Advance(s.shuffler, s.now()); err != nil {
		return nil, nil, err
	}

	if !session.Finished() {
		if err := s.store.Save(ctx, session); err != nil {
			return nil, nil, fmt.Errorf("failed to store session: %w", err)
		}
		return session, nil, nil
	}

	summary := s.persister.Persist(ctx, session)
	if err := s.store.Delete(ctx, session.ID); err != nil {
		// The stored copy is still revealed; overwrite it so it cannot be
		// advanced and written a second time.
		s.log.Warn("failed to drop finished session", "session_id", session.ID, "error", err)
		if err := s.store.Save(ctx, session); err != nil {
			s.log.Error("failed to store finished session", "session_id", session.ID, "error", err)
		}
	}
	return session, &summary, nil
}

// Abandon discards a session without recording it
func (s *LearningService) Abandon(ctx context.Context, userID int64, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.store.Delete(ctx, sessionID)
}

// History lists the user's finished sessions
func (s *LearningService) History(ctx context.Context, userID, setID int64, limit int) ([]models.HistoryEntry, error) {
	return s.history.ListHistory(ctx, userID, setID, limit)
}

// Stats aggregates the user's finished sessions
func (s *LearningService) Stats(ctx context.Context, userID int64) (*models.LearningStats, error) {
	return s.history.Stats(ctx, userID)
}

// PurgeIdle drops sessions that have seen no activity for the idle TTL
func (s *LearningService) PurgeIdle(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.PurgeIdle(ctx, s.now().Add(-s.idleTTL))
}
