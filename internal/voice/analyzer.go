package voice

import (
	"strings"
	"unicode/utf8"
)

// Observations is the set of pattern increments extracted from a single
// piece of writing. Structures, Phrases and Metaphors may carry duplicates;
// each occurrence counts separately when applied to a profile.
type Observations struct {
	Structures []string
	Phrases    []string
	Metaphors  []string

	Opening    string
	Closing    string
	HasBounds  bool // Opening/Closing are only valid when at least one sentence exists

	Rhythm   string // always one of "short", "medium", "long"
	Register string // register name or "neutral"
}

// patternBound is how many leading/trailing characters of the first and last
// sentence become the opening and closing pattern keys.
const patternBound = 50

var metaphorIndicators = []string{
	"like a", "as a", "becomes", "transforms into",
	"is a kind of", "echoes", "resonates", "mirrors",
	"threads", "weaves", "grows", "seeds", "roots",
}

var registerWords = []struct {
	name  string
	words []string
}{
	{"contemplative", []string{"wonder", "perhaps", "might", "could", "maybe", "uncertain"}},
	{"assertive", []string{"is", "will", "must", "always", "never", "certainly"}},
	{"tentative", []string{"seems", "appears", "suggests", "implies", "hints"}},
	{"emotional", []string{"fear", "hope", "love", "doubt", "trust", "believe"}},
}

// Analyze extracts linguistic patterns from one text blob. It is pure: the
// same text always yields the same observations.
func Analyze(text string) Observations {
	sentences := splitSentences(text)

	var obs Observations
	totalWords := 0

	for _, sentence := range sentences {
		words := strings.Fields(strings.ToLower(sentence))
		totalWords += len(strings.Fields(sentence))

		obs.Structures = append(obs.Structures, classifyStructure(words))
		obs.Phrases = append(obs.Phrases, extractPhrases(words)...)
		obs.Metaphors = append(obs.Metaphors, extractMetaphors(sentence)...)
	}

	if len(sentences) > 0 {
		obs.HasBounds = true
		obs.Opening = runePrefix(sentences[0], patternBound)
		obs.Closing = runeSuffix(sentences[len(sentences)-1], patternBound)
	}

	avg := 0.0
	if len(sentences) > 0 {
		avg = float64(totalWords) / float64(len(sentences))
	}
	switch {
	case avg < 8:
		obs.Rhythm = "short"
	case avg < 15:
		obs.Rhythm = "medium"
	default:
		obs.Rhythm = "long"
	}

	obs.Register = detectRegister(text)
	return obs
}

// splitSentences breaks text on runs of '.', '!' and '?', trims whitespace
// and drops empty results.
func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		if t := strings.TrimSpace(s); t != "" {
			sentences = append(sentences, t)
		}
	}
	return sentences
}

// classifyStructure buckets a sentence by its first word. Checks are ordered;
// the first match wins.
func classifyStructure(words []string) string {
	if len(words) == 0 {
		return "empty"
	}
	switch first := words[0]; {
	case oneOf(first, "what", "who", "when", "where", "why", "how"):
		return "question"
	case oneOf(first, "i", "this", "the"):
		if containsAny(words, "is", "am", "are") {
			return "declarative_being"
		}
		return "declarative_action"
	case oneOf(first, "perhaps", "maybe", "possibly"):
		return "speculative"
	case oneOf(first, "but", "yet", "however", "still"):
		return "contrastive"
	case oneOf(first, "because", "since", "as"):
		return "causal"
	default:
		return "other"
	}
}

// extractPhrases collects every 3-word window longer than 10 characters and
// every 4-word window longer than 15, space-joined from the lower-cased
// words. Lengths count characters, so multi-byte punctuation does not inflate
// a window.
func extractPhrases(words []string) []string {
	var phrases []string
	for i := 0; i+3 <= len(words); i++ {
		phrase := strings.Join(words[i:i+3], " ")
		if utf8.RuneCountInString(phrase) > 10 {
			phrases = append(phrases, phrase)
		}
	}
	for i := 0; i+4 <= len(words); i++ {
		phrase := strings.Join(words[i:i+4], " ")
		if utf8.RuneCountInString(phrase) > 15 {
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}

// extractMetaphors finds indicator phrases and captures a context window of
// the original-case sentence around the first occurrence of each: 20
// characters before the match through 50 after, clamped to the sentence and
// snapped to rune boundaries.
func extractMetaphors(sentence string) []string {
	lower := strings.ToLower(sentence)
	var metaphors []string
	for _, indicator := range metaphorIndicators {
		idx := strings.Index(lower, indicator)
		if idx < 0 {
			continue
		}
		start := snapRuneStart(sentence, max(0, idx-20))
		end := snapRuneStart(sentence, min(len(sentence), idx+50))
		metaphors = append(metaphors, strings.TrimSpace(sentence[start:end]))
	}
	return metaphors
}

// detectRegister scores the whole text against each register's word set
// (substring presence, one point per word found) and returns the first
// register reaching the maximum score, in declaration order. All-zero scores
// yield "neutral".
func detectRegister(text string) string {
	lower := strings.ToLower(text)
	best, bestScore := "neutral", 0
	for _, reg := range registerWords {
		score := 0
		for _, w := range reg.words {
			if strings.Contains(lower, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = reg.name, score
		}
	}
	return best
}

func oneOf(word string, set ...string) bool {
	for _, s := range set {
		if word == s {
			return true
		}
	}
	return false
}

func containsAny(words []string, set ...string) bool {
	for _, w := range words {
		if oneOf(w, set...) {
			return true
		}
	}
	return false
}

func runePrefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func runeSuffix(s string, n int) string {
	count := utf8.RuneCountInString(s)
	if count <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[count-n:])
}

// snapRuneStart moves a byte offset backwards to the start of the rune it
// falls inside, so context windows never split a multi-byte character.
func snapRuneStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
