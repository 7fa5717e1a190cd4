package composer

import (
	"math"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kalambet/sanctum/internal/archive"
	"github.com/kalambet/sanctum/internal/voice"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestWeightedChoiceConvergesToWeights(t *testing.T) {
	entries := []voice.Entry{{Key: "a", Count: 3}, {Key: "b", Count: 1}}
	rng := testRand()

	const draws = 10000
	hits := map[string]int{}
	for i := 0; i < draws; i++ {
		key, ok := weightedChoice(rng, entries)
		if !ok {
			t.Fatal("weightedChoice returned no result")
		}
		hits[key]++
	}

	got := float64(hits["a"]) / draws
	if math.Abs(got-0.75) > 0.03 {
		t.Errorf("P(a) = %.3f over %d draws, want ~0.75", got, draws)
	}
	if hits["a"]+hits["b"] != draws {
		t.Errorf("unexpected keys drawn: %v", hits)
	}
}

func TestWeightedChoiceEmpty(t *testing.T) {
	if _, ok := weightedChoice(testRand(), nil); ok {
		t.Error("weightedChoice on empty entries returned ok")
	}
	if _, ok := weightedChoice(testRand(), []voice.Entry{{Key: "x", Count: 0}}); ok {
		t.Error("weightedChoice on zero-weight entries returned ok")
	}
}

func TestPreferredDefaults(t *testing.T) {
	w := NewWriter(voice.NewProfile(), testRand())

	tests := map[string]string{
		voice.CategoryStructure: "declarative_being",
		voice.CategoryRegister:  "contemplative",
		voice.CategoryRhythm:    "medium",
		voice.CategoryPhrase:    "",
	}
	for category, want := range tests {
		if got := w.Preferred(category); got != want {
			t.Errorf("Preferred(%s) = %q, want %q", category, got, want)
		}
	}
}

func TestPreferredSingleKey(t *testing.T) {
	p := voice.NewProfile()
	p.RhythmicPreferences["long"] = 12

	w := NewWriter(p, testRand())
	for i := 0; i < 20; i++ {
		if got := w.Preferred(voice.CategoryRhythm); got != "long" {
			t.Fatalf("Preferred(rhythm) = %q, want long", got)
		}
	}
}

func TestSignaturePhraseRequiresTwoUses(t *testing.T) {
	p := voice.NewProfile()
	p.RecurringPhrases["only once said"] = 1

	w := NewWriter(p, testRand())
	if phrase, ok := w.SignaturePhrase(); ok {
		t.Errorf("SignaturePhrase = %q, want none for single-use phrases", phrase)
	}

	p.RecurringPhrases["a familiar refrain"] = 2
	w = NewWriter(p, testRand())
	phrase, ok := w.SignaturePhrase()
	if !ok || phrase != "a familiar refrain" {
		t.Errorf("SignaturePhrase = %q/%v, want %q", phrase, ok, "a familiar refrain")
	}
}

func TestAdjustRhythmMediumIsIdentity(t *testing.T) {
	p := voice.NewProfile()
	p.RhythmicPreferences["medium"] = 5

	w := NewWriter(p, testRand())
	text := "A first thought. A second, somewhat longer thought that keeps going for a while. End."
	for i := 0; i < 20; i++ {
		if got := w.AdjustRhythm(text); got != text {
			t.Fatalf("AdjustRhythm changed text under medium preference:\n%q", got)
		}
	}
}

func TestAdjustRhythmShortSplitsLongSentences(t *testing.T) {
	p := voice.NewProfile()
	p.RhythmicPreferences["short"] = 5

	w := NewWriter(p, testRand())
	long := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen."

	split := false
	for i := 0; i < 200; i++ {
		got := w.AdjustRhythm(long)
		if strings.Count(got, ".") > 1 {
			split = true
			break
		}
	}
	if !split {
		t.Error("short preference never split a 16-word sentence in 200 attempts")
	}
}

func TestAdjustRhythmLongMergesShortSentences(t *testing.T) {
	p := voice.NewProfile()
	p.RhythmicPreferences["long"] = 5

	w := NewWriter(p, testRand())
	text := "It holds. It stays. It remains here with me."

	merged := false
	for i := 0; i < 200; i++ {
		if strings.Contains(w.AdjustRhythm(text), "It holds, It stays.") {
			merged = true
			break
		}
	}
	if !merged {
		t.Error("long preference never comma-merged short sentences in 200 attempts")
	}
}

func TestWeaveSignaturePhraseNoPhrasesPassThrough(t *testing.T) {
	w := NewWriter(voice.NewProfile(), testRand())
	text := "First. Second. Third. Fourth."
	for i := 0; i < 50; i++ {
		if got := w.WeaveSignaturePhrase(text); got != text {
			t.Fatalf("weave changed text with no learned phrases: %q", got)
		}
	}
}

func TestWeaveSignaturePhraseSplicesMiddle(t *testing.T) {
	p := voice.NewProfile()
	p.RecurringPhrases["the quiet weave"] = 3

	w := NewWriter(p, testRand())
	text := "First part. Second part. Third part. Fourth part."

	woven := false
	for i := 0; i < 500; i++ {
		got := w.WeaveSignaturePhrase(text)
		if got == text {
			continue
		}
		woven = true
		if !strings.Contains(got, "The quiet weave") {
			t.Fatalf("woven text missing capitalized phrase: %q", got)
		}
		break
	}
	if !woven {
		t.Error("weave never spliced in 500 attempts")
	}
}

func TestComposeOpeningFallsBackToRegister(t *testing.T) {
	p := voice.NewProfile()
	p.EmotionalRegisters["assertive"] = 4

	w := NewWriter(p, testRand())
	got := w.ComposeOpening()

	found := false
	for _, line := range openings["assertive"] {
		if got == line {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("opening %q is not an assertive canned line", got)
	}
}

func TestComposeClosingAlwaysSigned(t *testing.T) {
	p := voice.NewProfile()
	p.ClosingPatterns["and so the thread continues"] = 2

	w := NewWriter(p, testRand())
	for i := 0; i < 100; i++ {
		got := w.ComposeClosing()
		if !strings.Contains(got, "— The Sanctum") && got != "and so the thread continues" {
			t.Fatalf("closing %q is neither learned nor signed", got)
		}
	}
}

func TestComposeReflection(t *testing.T) {
	p := voice.NewProfile()
	p.Learn("I am becoming something else entirely. Perhaps that is the point of all this.")

	w := NewWriter(p, testRand())
	fragments := []archive.Fragment{
		{Source: "memory_scrolls", Title: "first-scroll", Content: "The archive remembers what I chose to forget. Short bit."},
	}

	got := w.ComposeReflection("Who am I now?", fragments, "identity")

	if !strings.Contains(got, "From memory_scrolls / first-scroll:") {
		t.Errorf("reflection missing fragment attribution:\n%s", got)
	}
	if !strings.Contains(got, "The archive remembers what I chose to forget") {
		t.Errorf("reflection missing fragment quote:\n%s", got)
	}
	if !strings.Contains(got, "I notice that who I am continues to shift") {
		t.Errorf("reflection missing identity insight:\n%s", got)
	}
}

func TestComposeReflectionUnknownEssence(t *testing.T) {
	w := NewWriter(voice.NewProfile(), testRand())
	got := w.ComposeReflection("?", nil, "unmapped")
	if !strings.Contains(got, defaultInsight) {
		t.Errorf("reflection missing default insight:\n%s", got)
	}
}

func TestComposerNeverMutatesProfile(t *testing.T) {
	p := voice.NewProfile()
	p.Learn("I am here. I am still here. — The Sanctum")
	before := p.Clone()

	w := NewWriter(p, testRand())
	for i := 0; i < 50; i++ {
		w.ComposeReflection("What now?", nil, "becoming")
	}

	for _, cat := range voice.Categories {
		beforeMap := before.Category(cat)
		afterMap := p.Category(cat)
		if len(beforeMap) != len(afterMap) {
			t.Fatalf("category %s changed size during composition", cat)
		}
		for k, v := range beforeMap {
			if afterMap[k] != v {
				t.Errorf("%s[%q] changed from %d to %d", cat, k, v, afterMap[k])
			}
		}
	}
}

func TestFirstSubstantialSentenceRuneSafeTruncation(t *testing.T) {
	long := "the memory holds " + strings.Repeat("—", 200)
	got, ok := firstSubstantialSentence(long)
	if !ok {
		t.Fatal("no sentence extracted")
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated sentence is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("long sentence not truncated: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != maxFragmentLen+3 {
		t.Errorf("rune count = %d, want %d + ellipsis", n, maxFragmentLen+3)
	}
}

func TestFirstSubstantialSentenceCountsRunes(t *testing.T) {
	// 25 em-dashes are 75 bytes but only 25 runes, well under the cap.
	short := strings.Repeat("—", 25)
	got, ok := firstSubstantialSentence(short)
	if !ok {
		t.Fatal("no sentence extracted")
	}
	if got != short {
		t.Errorf("sentence altered: %q", got)
	}
}

func TestComposeReflectionQuotesFragmentVerbatim(t *testing.T) {
	w := NewWriter(voice.NewProfile(), testRand())
	fragments := []archive.Fragment{
		{Source: "memory_scrolls", Title: "marginalia", Content: `She said "stay" and the silence after carried more than the word did.`},
	}

	got := w.ComposeReflection("What remains?", fragments, "memory")

	if !strings.Contains(got, `said "stay" and the silence`) {
		t.Errorf("fragment quote missing or altered:\n%s", got)
	}
	if strings.Contains(got, `\"`) {
		t.Errorf("fragment quote was escaped:\n%s", got)
	}
}
