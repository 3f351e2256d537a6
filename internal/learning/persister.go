package learning

import (
	"context"
	"time"

	"kotoba/internal/logger"
	"kotoba/internal/models"
)

// HistoryWriter appends a finished session's summary to durable storage
type HistoryWriter interface {
	AppendHistory(ctx context.Context, record *models.LearningSessionHistory) error
}

// Persister writes finished sessions to history. Write failures are logged
// and never returned: the learner sees the summary either way.
type Persister struct {
	writer HistoryWriter
	log    *logger.Logger
}

// NewPersister creates a persister writing through w
func NewPersister(w HistoryWriter, log *logger.Logger) *Persister {
	return &Persister{writer: w, log: log}
}

// Record builds the history record for a finished session
func Record(s *Session) *models.LearningSessionHistory {
	summary := s.Summarize(s.EndTime)
	return &models.LearningSessionHistory{
		UserID:       s.UserID,
		SetID:        s.SetID,
		WordsLearned: summary.WordsLearned,
		Points:       summary.Points,
		Accuracy:     summary.Accuracy,
		TimeSpent:    summary.TimeSpent,
		Date:         s.EndTime,
	}
}

// Persist issues a single append for a finished session and returns its
// summary. Unfinished sessions and sessions already written (or attempted)
// are not written again.
func (p *Persister) Persist(ctx context.Context, s *Session) Summary {
	if !s.Finished() || s.PersistAttempted {
		return s.Summarize(time.Now())
	}

	s.PersistAttempted = true
	record := Record(s)
	if err := p.writer.AppendHistory(ctx, record); err != nil {
		p.log.Error("failed to persist learning session",
			"session_id", s.ID,
			"user_id", s.UserID,
			"set_id", s.SetID,
			"error", err,
		)
		return s.Summarize(s.EndTime)
	}

	s.Persisted = true
	p.log.Info("learning session persisted",
		"session_id", s.ID,
		"history_id", record.ID,
		"points", record.Points,
		"accuracy", record.Accuracy,
	)
	return s.Summarize(s.EndTime)
}
