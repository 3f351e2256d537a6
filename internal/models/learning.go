package models

import "time"

// LearningSessionHistory is the summary of one finished learning session.
// Records are append-only.
type LearningSessionHistory struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"userId"`
	SetID        int64     `db:"set_id" json:"setId"` // 0 once the set is deleted
	WordsLearned int       `db:"words_learned" json:"wordsLearned"`
	Points       int       `db:"points" json:"points"`
	Accuracy     float64   `db:"accuracy" json:"accuracy"`
	TimeSpent    int       `db:"time_spent" json:"timeSpent"` // seconds
	Date         time.Time `db:"date" json:"date"`
}

// HistoryEntry is a history record joined with its set's name
type HistoryEntry struct {
	LearningSessionHistory
	SetName string `db:"set_name" json:"setName"`
}

// LearningStats aggregates a user's history
type LearningStats struct {
	Sessions        int     `db:"sessions" json:"sessions"`
	TotalPoints     int     `db:"total_points" json:"totalPoints"`
	WordsLearned    int     `db:"words_learned" json:"wordsLearned"`
	AverageAccuracy float64 `db:"average_accuracy" json:"averageAccuracy"`
	TimeSpent       int     `db:"time_spent" json:"timeSpent"`
}
