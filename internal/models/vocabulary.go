package models

import "time"

// VocabularySet is a user-owned collection of words
type VocabularySet struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	TotalWords  int       `db:"total_words" json:"totalWords"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// VocabularyWord is a single Japanese word with its English meaning.
// Difficulty (0..100) is stored for display and never changed by learning.
type VocabularyWord struct {
	ID         int64     `db:"id" json:"id"`
	SetID      int64     `db:"set_id" json:"setId"`
	Kanji      string    `db:"kanji" json:"kanji"`
	Kana       string    `db:"kana" json:"kana"`
	Meaning    string    `db:"meaning" json:"meaning"`
	Notes      string    `db:"notes" json:"notes,omitempty"`
	Difficulty int       `db:"difficulty" json:"difficulty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Prompt returns the written form shown on the card: kanji when present,
// otherwise kana.
func (w VocabularyWord) Prompt() string {
	if w.Kanji != "" {
		return w.Kanji
	}
	return w.Kana
}
