package learning

import "kotoba/internal/models"

// BuildOptions returns the shuffled answer options for words[index]: its
// meaning plus up to MaxDistractors meanings of other words in the pool.
//
// The correct meaning appears exactly once and no option is repeated, so
// candidates sharing the correct meaning or an already chosen distractor are
// skipped. Pools with fewer than four distinct meanings give fewer options.
func BuildOptions(words []models.VocabularyWord, index int, r Shuffler) []string {
	if index < 0 || index >= len(words) {
		return nil
	}
	if r == nil {
		r = DefaultShuffler
	}

	correct := words[index].Meaning

	others := make([]models.VocabularyWord, 0, len(words)-1)
	others = append(others, words[:index]...)
	others = append(others, words[index+1:]...)
	r.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})

	seen := map[string]bool{correct: true}
	options := []string{correct}
	for _, w := range others {
		if len(options) > MaxDistractors {
			break
		}
		if seen[w.Meaning] {
			continue
		}
		seen[w.Meaning] = true
		options = append(options, w.Meaning)
	}

	r.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}
