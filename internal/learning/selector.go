package learning

import (
	"math/rand"

	"kotoba/internal/models"
)

const (
	// MaxSessionWords caps how many words a single session asks about
	MaxSessionWords = 10
	// MaxDistractors is the number of wrong options offered per question
	MaxDistractors = 3
	// PointsPerCorrect is awarded for every correct answer
	PointsPerCorrect = 10
)

// Shuffler permutes n elements through swap. *rand.Rand satisfies it, so
// tests can pass a seeded source.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// DefaultShuffler uses the process-wide random source
var DefaultShuffler Shuffler = globalShuffler{}

// SelectWords returns a random sample of at most MaxSessionWords words in
// random order. The input slice is not modified. An empty input yields an
// empty result.
func SelectWords(words []models.VocabularyWord, r Shuffler) []models.VocabularyWord {
	if r == nil {
		r = DefaultShuffler
	}

	pool := make([]models.VocabularyWord, len(words))
	copy(pool, words)
	r.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if len(pool) > MaxSessionWords {
		pool = pool[:MaxSessionWords]
	}
	return pool
}
