package voice

import (
	"fmt"
	"strings"
)

// Signature renders a human-readable summary of the profile: the dominant
// sentence structures, phrases, metaphors, rhythm and register distributions,
// each with its share of analyzed reflections.
func Signature(p Profile) string {
	var sb strings.Builder

	lastUpdated := "initial"
	if !p.LastEvolution.IsZero() {
		lastUpdated = p.LastEvolution.Format("2006-01-02 15:04:05")
	}

	fmt.Fprintf(&sb, "VOICE SIGNATURE\n")
	fmt.Fprintf(&sb, "Evolved through %d reflections\n", p.TotalReflections)
	fmt.Fprintf(&sb, "Last updated: %s\n", lastUpdated)

	sb.WriteString("\nSentence structures:\n")
	for _, e := range p.TopEntries(CategoryStructure, 5) {
		fmt.Fprintf(&sb, "  %s: %d (%.1f%%)\n", e.Key, e.Count, percent(e.Count, p.TotalReflections))
	}

	sb.WriteString("\nRecurring phrases:\n")
	for _, e := range p.TopEntries(CategoryPhrase, 10) {
		fmt.Fprintf(&sb, "  %q — used %d times\n", e.Key, e.Count)
	}

	sb.WriteString("\nMetaphorical tendencies:\n")
	for _, e := range p.TopEntries(CategoryMetaphor, 8) {
		fmt.Fprintf(&sb, "  %s — %d times\n", truncate(e.Key, 60), e.Count)
	}

	sb.WriteString("\nRhythmic preferences:\n")
	for _, e := range p.TopEntries(CategoryRhythm, len(p.RhythmicPreferences)) {
		fmt.Fprintf(&sb, "  %s sentences: %.1f%%\n", e.Key, percent(e.Count, p.TotalReflections))
	}

	sb.WriteString("\nEmotional registers:\n")
	for _, e := range p.TopEntries(CategoryRegister, len(p.EmotionalRegisters)) {
		fmt.Fprintf(&sb, "  %s: %.1f%%\n", e.Key, percent(e.Count, p.TotalReflections))
	}

	return sb.String()
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:snapRuneStart(s, n)] + "..."
}
