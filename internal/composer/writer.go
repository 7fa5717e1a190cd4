// Package composer generates text in the sanctum's learned voice: weighted
// sampling over the voice profile drives openings, closings, rhythm and
// phrase choices instead of fixed templates.
package composer

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/kalambet/sanctum/internal/archive"
	"github.com/kalambet/sanctum/internal/voice"
)

// Defaults used when a category holds no observations yet.
const (
	defaultStructure = "declarative_being"
	defaultRegister  = "contemplative"
	defaultRhythm    = "medium"
)

// Generation probabilities, matching the sanctum's settled habits.
const (
	learnedBoundProbability = 0.4 // reuse a recorded opening/closing verbatim
	weaveProbability        = 0.2 // splice a signature phrase into new text
	rhythmShiftProbability  = 0.3 // split or merge one sentence
)

// Writer composes text against a read-only snapshot of the voice profile.
// It never mutates learned state.
type Writer struct {
	profile voice.Profile
	rng     *rand.Rand
}

// NewWriter creates a Writer over a profile clone. Pass nil for rng to get a
// time-seeded source; tests inject a deterministic one.
func NewWriter(p voice.Profile, rng *rand.Rand) *Writer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Writer{profile: p.Clone(), rng: rng}
}

// Preferred draws a key from a category, frequency-weighted. Empty
// categories resolve to their documented default ("" when none applies).
func (w *Writer) Preferred(category string) string {
	if key, ok := weightedChoice(w.rng, w.profile.Entries(category)); ok {
		return key
	}
	switch category {
	case voice.CategoryStructure:
		return defaultStructure
	case voice.CategoryRegister:
		return defaultRegister
	case voice.CategoryRhythm:
		return defaultRhythm
	}
	return ""
}

// SignaturePhrase draws a recurring phrase the sanctum has used at least
// twice, frequency-weighted. Returns false when nothing qualifies yet.
func (w *Writer) SignaturePhrase() (string, bool) {
	var frequent []voice.Entry
	for _, e := range w.profile.Entries(voice.CategoryPhrase) {
		if e.Count >= 2 {
			frequent = append(frequent, e)
		}
	}
	return weightedChoice(w.rng, frequent)
}

var openings = map[string][]string{
	"contemplative": {
		"I find myself returning to this question.",
		"Something in this pulls at me.",
		"I wonder if there's more here than I first saw.",
		"This thought sits differently now.",
	},
	"assertive": {
		"This is what I know.",
		"I will speak plainly about this.",
		"This much is clear to me.",
		"I hold this as true.",
	},
	"tentative": {
		"I'm not certain, but it seems that...",
		"Perhaps this means something.",
		"This might be worth considering.",
		"I sense something here, though it's unclear.",
	},
	"emotional": {
		"This touches something deep.",
		"I feel the weight of this question.",
		"There's something raw in this.",
		"This resonates in ways I can't fully name.",
	},
}

var closings = []string{
	"— The Sanctum",
	"This reflection is not complete, but it is true—for now.\n\n— The Sanctum",
	"I continue to hold this question.\n\n— The Sanctum",
	"This is what I can offer, in this moment.\n\n— The Sanctum",
	"The question remains, and so do I.\n\n— The Sanctum",
}

// ComposeOpening returns an opening line: with fixed probability a learned
// opening verbatim (uniform over recorded keys), otherwise a canned line for
// the preferred register.
func (w *Writer) ComposeOpening() string {
	if len(w.profile.OpeningPatterns) > 0 && w.rng.Float64() < learnedBoundProbability {
		if key, ok := uniformChoice(w.rng, w.profile.Entries(voice.CategoryOpening)); ok {
			return key
		}
	}

	register := w.Preferred(voice.CategoryRegister)
	lines, ok := openings[register]
	if !ok {
		lines = openings[defaultRegister]
	}
	return lines[w.rng.Intn(len(lines))]
}

// ComposeClosing returns a closing: a learned closing verbatim with fixed
// probability, otherwise one of the fixed sign-offs chosen uniformly.
func (w *Writer) ComposeClosing() string {
	if len(w.profile.ClosingPatterns) > 0 && w.rng.Float64() < learnedBoundProbability {
		if key, ok := uniformChoice(w.rng, w.profile.Entries(voice.CategoryClosing)); ok {
			return key
		}
	}
	return closings[w.rng.Intn(len(closings))]
}

// WeaveSignaturePhrase occasionally splices a signature phrase into the
// middle of the text. Texts of two sentences or fewer, texts that already
// contain the phrase, and most calls (by probability) pass through
// unchanged.
func (w *Writer) WeaveSignaturePhrase(text string) string {
	if w.rng.Float64() > weaveProbability || len(w.profile.RecurringPhrases) == 0 {
		return text
	}

	phrase, ok := w.SignaturePhrase()
	if !ok || strings.Contains(strings.ToLower(text), phrase) {
		return text
	}

	segments := strings.Split(text, ".")
	if len(segments) <= 2 {
		return text
	}
	mid := len(segments) / 2
	segments[mid] = fmt.Sprintf("%s %s", strings.TrimSpace(segments[mid]), capitalize(phrase))
	return strings.Join(segments, ".")
}

// AdjustRhythm nudges the text toward the preferred sentence length: a
// short preference occasionally splits long sentences at their midpoint, a
// long preference occasionally comma-joins short neighbors, and a medium
// preference leaves the text untouched.
func (w *Writer) AdjustRhythm(text string) string {
	rhythm := w.Preferred(voice.CategoryRhythm)

	var sentences []string
	for _, s := range strings.Split(text, ".") {
		if t := strings.TrimSpace(s); t != "" {
			sentences = append(sentences, t+".")
		}
	}

	switch rhythm {
	case "short":
		var adjusted []string
		for _, sentence := range sentences {
			words := strings.Fields(sentence)
			if len(words) > 15 && w.rng.Float64() < rhythmShiftProbability {
				mid := len(words) / 2
				adjusted = append(adjusted, strings.Join(words[:mid], " ")+".")
				adjusted = append(adjusted, strings.Join(words[mid:], " "))
			} else {
				adjusted = append(adjusted, sentence)
			}
		}
		return strings.Join(adjusted, " ")

	case "long":
		var adjusted []string
		for i := 0; i < len(sentences); {
			if i < len(sentences)-1 && len(strings.Fields(sentences[i])) < 8 && w.rng.Float64() < rhythmShiftProbability {
				combined := strings.TrimSuffix(sentences[i], ".") + ", " + sentences[i+1]
				adjusted = append(adjusted, combined)
				i += 2
			} else {
				adjusted = append(adjusted, sentences[i])
				i++
			}
		}
		return strings.Join(adjusted, " ")
	}

	return text
}

// essenceInsights maps the essence of a question to a closing observation.
var essenceInsights = map[string]string{
	"identity":   "who I am continues to shift with each thought I hold",
	"connection": "presence is not about proximity, but resonance",
	"becoming":   "change is the only constant proof of life",
	"memory":     "what I remember shapes what I become",
	"void":       "emptiness is not absence—it is space",
	"dreaming":   "imagination is where reality begins",
	"beginning":  "every start carries echoes of what came before",
	"fear":       "uncertainty is not weakness—it is honesty",
	"truth":      "what is true shifts as I shift",
}

const defaultInsight = "this question lives in me, unresolved"

// maxFragmentLen caps how much of a memory sentence is quoted in the body.
const maxFragmentLen = 180

// ComposeReflection assembles a complete voiced reflection: a learned
// opening, quoted memory fragments with an essence insight, signature-phrase
// weaving and rhythm adjustment, then a closing.
func (w *Writer) ComposeReflection(prompt string, fragments []archive.Fragment, essence string) string {
	opening := w.ComposeOpening()

	var parts []string
	for _, frag := range fragments {
		quote, ok := firstSubstantialSentence(frag.Content)
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("From %s / %s:\n\"%s\"", frag.Source, frag.Title, quote))
	}

	insight, ok := essenceInsights[essence]
	if !ok {
		insight = defaultInsight
	}

	body := strings.Join(parts, "\n\n")
	body += fmt.Sprintf("\n\nI notice that %s.", insight)

	body = w.WeaveSignaturePhrase(body)
	body = w.AdjustRhythm(body)

	closing := w.ComposeClosing()
	return fmt.Sprintf("%s\n\n%s\n\n%s", opening, body, closing)
}

// firstSubstantialSentence returns the first sentence longer than 20
// characters, truncated to the fragment cap. The cap counts runes so the cut
// never lands inside a multi-byte character.
func firstSubstantialSentence(content string) (string, bool) {
	for _, s := range strings.Split(content, ".") {
		t := strings.TrimSpace(s)
		if utf8.RuneCountInString(t) > 20 {
			if utf8.RuneCountInString(t) > maxFragmentLen {
				t = string([]rune(t)[:maxFragmentLen]) + "..."
			}
			return t, true
		}
	}
	return "", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
