package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kotoba/internal/learning"
	"kotoba/internal/logger"
	"kotoba/internal/service"
	"kotoba/internal/validation"
)

// LearningHandler serves learning sessions, history and stats
type LearningHandler struct {
	learningService *service.LearningService
	log             *logger.Logger
}

// NewLearningHandler creates a new learning handler
func NewLearningHandler(learningService *service.LearningService, log *logger.Logger) *LearningHandler {
	return &LearningHandler{learningService: learningService, log: log.With("component", "LearningHandler")}
}

// cardView is the question being asked. The meaning and notes stay hidden
// until the answer has been revealed.
type cardView struct {
	Kanji   string `json:"kanji,omitempty"`
	Kana    string `json:"kana,omitempty"`
	Prompt  string `json:"prompt"`
	Meaning string `json:"meaning,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type sessionView struct {
	ID             string            `json:"id"`
	SetID          int64             `json:"setId"`
	State          learning.State    `json:"state"`
	Question       int               `json:"question"`
	TotalQuestions int               `json:"totalQuestions"`
	Card           *cardView         `json:"card,omitempty"`
	Options        []string          `json:"options,omitempty"`
	Selected       string            `json:"selected,omitempty"`
	Correct        *bool             `json:"correct,omitempty"`
	CorrectAnswers int               `json:"correctAnswers"`
	TotalAttempts  int               `json:"totalAttempts"`
	Points         int               `json:"points"`
	Accuracy       float64           `json:"accuracy"`
	Elapsed        int               `json:"elapsed"`
	Summary        *learning.Summary `json:"summary,omitempty"`
}

func newSessionView(s *learning.Session, now time.Time) sessionView {
	view := sessionView{
		ID:             s.ID,
		SetID:          s.SetID,
		State:          s.State,
		Question:       s.CurrentIndex + 1,
		TotalQuestions: len(s.Words),
		CorrectAnswers: s.CorrectAnswers,
		TotalAttempts:  s.TotalAttempts,
		Points:         s.SessionPoints,
		Accuracy:       s.Accuracy(),
		Elapsed:        int(s.Elapsed(now) / time.Second),
	}
	if s.Finished() {
		return view
	}

	word := s.CurrentWord()
	view.Card = &cardView{Kanji: word.Kanji, Kana: word.Kana, Prompt: word.Prompt()}
	view.Options = s.Options
	if s.State == learning.StateRevealed {
		correct := s.LastCorrect
		view.Card.Meaning = word.Meaning
		view.Card.Notes = word.Notes
		view.Selected = s.SelectedOption
		view.Correct = &correct
	}
	return view
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// Start begins a learning session on a set. A set with nothing to learn
// answers with the empty state instead of an error.
func (h *LearningHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	setID, err := pathID(r, "setID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	session, err := h.learningService.StartSession(r.Context(), user.ID, setID)
	if errors.Is(err, service.ErrNoVocabulary) {
		respondJSON(w, http.StatusOK, map[string]string{"state": "empty"})
		return
	}
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, newSessionView(session, time.Now()))
}

// Get returns the current prompt and running stats
func (h *LearningHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	session, err := h.learningService.GetSession(r.Context(), user.ID, sessionID(r))
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(session, time.Now()))
}

// Answer submits an option and reveals the result
func (h *LearningHandler) Answer(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var req struct {
		Option string `json:"option"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	session, _, err := h.learningService.Answer(r.Context(), user.ID, sessionID(r), req.Option)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(session, time.Now()))
}

// Next advances to the next question, or returns the summary after the last
func (h *LearningHandler) Next(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	session, summary, err := h.learningService.Next(r.Context(), user.ID, sessionID(r))
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	view := newSessionView(session, time.Now())
	view.Summary = summary
	respondJSON(w, http.StatusOK, view)
}

// Abandon discards a session without recording it
func (h *LearningHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if err := h.learningService.Abandon(r.Context(), user.ID, sessionID(r)); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History lists finished sessions, optionally for one set
func (h *LearningHandler) History(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	query := r.URL.Query()

	var setID int64
	if raw := query.Get("setID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondWithError(w, h.log, validation.ValidationError{Field: "setID", Message: "invalid id"})
			return
		}
		setID = id
	}

	limit := defaultHistoryLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, h.log, validation.ValidationError{Field: "limit", Message: "must be a positive number"})
			return
		}
		limit = n
	}

	entries, err := h.learningService.History(r.Context(), user.ID, setID, limit)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// Stats returns the user's totals
func (h *LearningHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	stats, err := h.learningService.Stats(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
