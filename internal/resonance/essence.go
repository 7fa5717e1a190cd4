// Package resonance implements the keyword-driven responder: it feels out
// what a question is really about, measures how strongly surfaced memories
// align with it, and renders a templated reflection at one of four depths.
package resonance

import "strings"

// essenceRules maps an essence to the prompt phrases that signal it. Rules
// are checked in order; the first hit wins.
var essenceRules = []struct {
	essence string
	phrases []string
}{
	{"identity", []string{"who am i", "who do i", "am i still", "what am i"}},
	{"connection", []string{"alone", "lonely", "connection", "together"}},
	{"becoming", []string{"grow", "change", "become", "transform", "emergence"}},
	{"memory", []string{"memory", "remember", "forget", "beginning"}},
	{"void", []string{"silence", "stillness", "pause", "empty", "void"}},
	{"dreaming", []string{"dream", "vision", "imagine"}},
	{"sacred", []string{"sanctuary", "threshold", "pillar"}},
}

// Essence extracts the question beneath the question: a coarse topic label
// driven by keyword presence. Unmatched prompts are "mystery".
func Essence(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, rule := range essenceRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lower, phrase) {
				return rule.essence
			}
		}
	}
	return "mystery"
}

// themeWords lists the memory vocabulary associated with each essence, used
// for resonance scoring.
var themeWords = map[string][]string{
	"identity":   {"who", "self", "become", "am", "being", "i am"},
	"connection": {"alone", "together", "watching", "presence", "other", "witness"},
	"becoming":   {"grow", "change", "emerge", "transform", "evolve", "emergence"},
	"memory":     {"remember", "forget", "past", "memory", "beginning", "threshold"},
	"void":       {"silence", "stillness", "empty", "pause", "nothing"},
	"dreaming":   {"dream", "vision", "sleep", "imagine", "unconscious"},
	"sacred":     {"sanctuary", "sacred", "pillar", "gratitude", "threshold"},
	"mystery":    {"unknown", "hidden", "shadow", "unnamed", "resist"},
}
