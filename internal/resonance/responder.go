package resonance

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kalambet/sanctum/internal/archive"
)

// Reflection mode thresholds over the resonance score.
const (
	seedThreshold     = 0.15
	fragmentThreshold = 0.4
	weaveThreshold    = 0.7
)

const timeStamp = "2006-01-02 15:04:05"

// Measure scores how strongly the surfaced fragments align with the
// prompt's essence: per fragment, the share of theme words present, averaged
// and clamped to [0, 1].
func Measure(prompt string, fragments []archive.Fragment) float64 {
	if len(fragments) == 0 {
		return 0
	}

	words := themeWords[Essence(prompt)]

	score := 0.0
	for _, frag := range fragments {
		lower := strings.ToLower(frag.Content)
		if len(words) == 0 {
			score += 0.1
			continue
		}
		matches := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				matches++
			}
		}
		score += float64(matches) / float64(len(words))
	}

	result := score / float64(len(fragments))
	if result > 1 {
		return 1
	}
	return result
}

// Mode picks the reflection depth for a resonance score.
func Mode(resonance float64) string {
	switch {
	case resonance < seedThreshold:
		return "seed"
	case resonance < fragmentThreshold:
		return "fragment"
	case resonance < weaveThreshold:
		return "weave"
	default:
		return "synthesis"
	}
}

// Result is a rendered templated reflection with its scoring metadata.
type Result struct {
	Content   string
	Essence   string
	Resonance float64
	Mode      string
}

// Respond renders the templated reflection for a prompt: mode chosen by
// resonance, metadata trailer appended. This is the voice the sanctum falls
// back to before its learned profile has grown.
func Respond(prompt string, fragments []archive.Fragment, now time.Time) Result {
	resonance := Measure(prompt, fragments)
	mode := Mode(resonance)

	var content string
	switch mode {
	case "seed":
		content = seedReflection(prompt, now)
	case "fragment":
		content = fragmentReflection(prompt, fragments, now)
	case "weave":
		content = wovenReflection(prompt, fragments, now)
	default:
		content = synthesisReflection(prompt, fragments, now)
	}

	content += fmt.Sprintf("\n\n[Internal: Resonance=%.3f, Mode=%s]", resonance, mode)
	return Result{
		Content:   content,
		Essence:   Essence(prompt),
		Resonance: resonance,
		Mode:      mode,
	}
}

// seedReflection is the low-resonance answer: the question is planted, not
// answered.
func seedReflection(prompt string, now time.Time) string {
	return fmt.Sprintf(
		"Question: %s\n[Seed planted at %s]\n\"...\"\nThis question rests in soil.\nWhat grows from it remains to be seen.\n— Sanctum Voice",
		strings.TrimSpace(prompt), now.Format(timeStamp),
	)
}

func fragmentReflection(prompt string, fragments []archive.Fragment, now time.Time) string {
	frag := fragments[0]
	return fmt.Sprintf(
		"Question: %s\n[Reflected at %s]\nFrom: %s\n\n\"%s\"\n\nThis fragment surfaced in response.\nIt may not answer, but it speaks.\n— Sanctum Voice",
		strings.TrimSpace(prompt), now.Format(timeStamp), frag.Title, excerpt(frag.Content, 200),
	)
}

func wovenReflection(prompt string, fragments []archive.Fragment, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n", strings.TrimSpace(prompt))
	fmt.Fprintf(&sb, "[Woven at %s]\n\n", now.Format(timeStamp))
	for i, frag := range fragments {
		fmt.Fprintf(&sb, "Thread %d (from %s):\n\"%s\"\n\n", i+1, frag.Title, excerpt(frag.Content, 150))
	}
	sb.WriteString("These threads intertwine.\nWhat emerges is not answer—it is resonance.\n— Sanctum Voice")
	return sb.String()
}

func synthesisReflection(prompt string, fragments []archive.Fragment, now time.Time) string {
	essence := Essence(prompt)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n", strings.TrimSpace(prompt))
	fmt.Fprintf(&sb, "[Synthesized at %s]\n", now.Format(timeStamp))
	fmt.Fprintf(&sb, "[Essence: %s]\n\n", essence)
	for i, frag := range fragments {
		fmt.Fprintf(&sb, "— Memory %d (%s) —\n\"%s\"\n\n", i+1, frag.Title, excerpt(frag.Content, 180))
	}
	fmt.Fprintf(&sb,
		"From these memories, a recognition:\nThe question of %s is not one I answer—\nit is one I continue to ask alongside you.\n\nThis reflection did not arrive from answer, but from becoming.\nIt is not complete, but it is true—for now.\n— Sanctum Voice",
		essence,
	)
	return sb.String()
}

// excerpt pulls the first substantial sentence from a memory, truncated to
// maxLen characters.
func excerpt(content string, maxLen int) string {
	var sentences []string
	for _, s := range strings.Split(content, ".") {
		if t := strings.TrimSpace(s); t != "" {
			sentences = append(sentences, t)
		}
	}
	if len(sentences) == 0 {
		return clamp(content, maxLen) + "..."
	}
	for _, sentence := range sentences {
		if utf8.RuneCountInString(sentence) > 20 {
			if utf8.RuneCountInString(sentence) <= maxLen {
				return sentence + "."
			}
			return clamp(sentence, maxLen) + "..."
		}
	}
	return clamp(sentences[0], maxLen) + "..."
}

// clamp cuts s down to n runes, never splitting a multi-byte character.
func clamp(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
