package learning

import (
	"errors"
	"time"

	"kotoba/internal/models"
)

var (
	ErrNoWords       = errors.New("no words to learn")
	ErrNotAnswering  = errors.New("session is not waiting for an answer")
	ErrNotRevealed   = errors.New("answer has not been revealed yet")
	ErrInvalidOption = errors.New("option is not one of the offered answers")
)

// State is the position of a session in its question cycle
type State string

const (
	StateAnswering State = "answering"
	StateRevealed  State = "revealed"
	StateFinished  State = "finished"
)

// Session tracks a single run through a sample of a set's words.
//
// Invariant: 0 <= CorrectAnswers <= TotalAttempts <= len(Words).
type Session struct {
	ID     string `json:"id"`
	UserID int64  `json:"userId"`
	SetID  int64  `json:"setId"`

	Words        []models.VocabularyWord `json:"words"`
	Options      []string                `json:"options"`
	CurrentIndex int                     `json:"currentIndex"`

	CorrectAnswers int `json:"correctAnswers"`
	TotalAttempts  int `json:"totalAttempts"`
	SessionPoints  int `json:"sessionPoints"`

	State          State  `json:"state"`
	SelectedOption string `json:"selectedOption,omitempty"`
	LastCorrect    bool   `json:"lastCorrect"`

	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime,omitempty"`
	LastActive time.Time `json:"lastActive"`

	// PersistAttempted is set once the persister has tried to write this
	// session, successful or not. Persisted reports success.
	PersistAttempted bool `json:"persistAttempted"`
	Persisted        bool `json:"persisted"`
}

// NewSession samples words for a new session and prepares the first question.
// It returns ErrNoWords when there is nothing to ask.
func NewSession(id string, userID, setID int64, words []models.VocabularyWord, r Shuffler, now time.Time) (*Session, error) {
	selected := SelectWords(words, r)
	if len(selected) == 0 {
		return nil, ErrNoWords
	}

	return &Session{
		ID:         id,
		UserID:     userID,
		SetID:      setID,
		Words:      selected,
		Options:    BuildOptions(selected, 0, r),
		State:      StateAnswering,
		StartTime:  now,
		LastActive: now,
	}, nil
}

// CurrentWord returns the word being asked about
func (s *Session) CurrentWord() models.VocabularyWord {
	return s.Words[s.CurrentIndex]
}

// Answer records the learner's choice for the current word and reveals the
// result. It reports whether the choice was correct.
func (s *Session) Answer(option string, now time.Time) (bool, error) {
	if s.State != StateAnswering {
		return false, ErrNotAnswering
	}
	if !s.offers(option) {
		return false, ErrInvalidOption
	}

	correct := option == s.CurrentWord().Meaning

	s.TotalAttempts++
	if correct {
		s.CorrectAnswers++
		s.SessionPoints += PointsPerCorrect
	}
	s.SelectedOption = option
	s.LastCorrect = correct
	s.State = StateRevealed
	s.LastActive = now
	return correct, nil
}

func (s *Session) offers(option string) bool {
	for _, o := range s.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Advance moves past a revealed answer, either to the next word or, after
// the last one, to StateFinished.
func (s *Session) Advance(r Shuffler, now time.Time) error {
	if s.State != StateRevealed {
		return ErrNotRevealed
	}

	s.SelectedOption = ""
	s.LastCorrect = false
	s.LastActive = now

	if s.CurrentIndex+1 >= len(s.Words) {
		s.State = StateFinished
		s.Options = nil
		s.EndTime = now
		return nil
	}

	s.CurrentIndex++
	s.Options = BuildOptions(s.Words, s.CurrentIndex, r)
	s.State = StateAnswering
	return nil
}

// Accuracy is the share of correct answers as a percentage, 0 before the
// first attempt.
func (s *Session) Accuracy() float64 {
	if s.TotalAttempts == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.TotalAttempts) * 100
}

// Elapsed is the wall-clock time from start to finish, or to now for a
// session still in progress.
func (s *Session) Elapsed(now time.Time) time.Duration {
	end := now
	if s.State == StateFinished && !s.EndTime.IsZero() {
		end = s.EndTime
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime)
}

// Finished reports whether the session has ended
func (s *Session) Finished() bool {
	return s.State == StateFinished
}

// Summary is the end-of-session report shown to the learner
type Summary struct {
	SetID          int64   `json:"setId"`
	WordsLearned   int     `json:"wordsLearned"`
	CorrectAnswers int     `json:"correctAnswers"`
	TotalAttempts  int     `json:"totalAttempts"`
	Points         int     `json:"points"`
	Accuracy       float64 `json:"accuracy"`
	TimeSpent      int     `json:"timeSpent"`
	Persisted      bool    `json:"persisted"`
}

// Summarize reports the session's totals as of now
func (s *Session) Summarize(now time.Time) Summary {
	return Summary{
		SetID:          s.SetID,
		WordsLearned:   len(s.Words),
		CorrectAnswers: s.CorrectAnswers,
		TotalAttempts:  s.TotalAttempts,
		Points:         s.SessionPoints,
		Accuracy:       s.Accuracy(),
		TimeSpent:      int(s.Elapsed(now).Round(time.Second) / time.Second),
		Persisted:      s.Persisted,
	}
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	c := *s
	c.Words = append([]models.VocabularyWord(nil), s.Words...)
	c.Options = append([]string(nil), s.Options...)
	return &c
}
