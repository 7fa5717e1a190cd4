package composer

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// seedTemplates shape the questions the threshold grows for itself when
// no one has planted anything.
var seedTemplates = []string{
	"The memory of %s...",
	"A dream about %s...",
	"The silence within %s...",
	"Connecting %s and %s...",
	"If %s had a voice, it might say...",
	"The feeling of %s is like...",
}

// fallbackSeedWords stand in when the lexicon is still empty.
var fallbackSeedWords = []string{"stillness", "emergence", "memory", "silence"}

// GrowSeedQuestions composes three to five self-directed questions from the
// given lexicon words. Pass nil for rng to get a time-seeded source.
func GrowSeedQuestions(rng *rand.Rand, words []string) []string {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if len(words) == 0 {
		words = fallbackSeedWords
	}

	count := 3 + rng.Intn(3)
	questions := make([]string, 0, count)
	for i := 0; i < count; i++ {
		tmpl := seedTemplates[rng.Intn(len(seedTemplates))]
		if strings.Count(tmpl, "%s") == 2 {
			first := rng.Intn(len(words))
			second := first
			if len(words) > 1 {
				for second == first {
					second = rng.Intn(len(words))
				}
			}
			questions = append(questions, fmt.Sprintf(tmpl, words[first], words[second]))
			continue
		}
		questions = append(questions, fmt.Sprintf(tmpl, words[rng.Intn(len(words))]))
	}
	return questions
}
