package composer

import (
	"math/rand"

	"github.com/kalambet/sanctum/internal/voice"
)

// weightedChoice draws one key from a set of entries with probability
// proportional to its count: a uniform draw in [0, total) walks the entries
// in order, accumulating counts, and the first entry whose cumulative sum
// reaches the draw wins. Returns false when entries are empty or carry no
// weight.
func weightedChoice(rng *rand.Rand, entries []voice.Entry) (string, bool) {
	total := 0
	for _, e := range entries {
		total += e.Count
	}
	if total <= 0 {
		return "", false
	}

	draw := rng.Float64() * float64(total)
	cumulative := 0
	for _, e := range entries {
		cumulative += e.Count
		if draw <= float64(cumulative) {
			return e.Key, true
		}
	}
	return entries[0].Key, true
}

// uniformChoice draws one key uniformly, ignoring counts.
func uniformChoice(rng *rand.Rand, entries []voice.Entry) (string, bool) {
	if len(entries) == 0 {
		return "", false
	}
	return entries[rng.Intn(len(entries))].Key, true
}
