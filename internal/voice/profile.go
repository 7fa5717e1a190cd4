package voice

import (
	"sort"
	"time"
)

// Observation categories. The set is closed: every learned count lives under
// exactly one of these.
const (
	CategoryStructure = "sentence_structure"
	CategoryPhrase    = "recurring_phrase"
	CategoryMetaphor  = "metaphor_vocabulary"
	CategoryOpening   = "opening_pattern"
	CategoryClosing   = "closing_pattern"
	CategoryRhythm    = "rhythmic_preference"
	CategoryRegister  = "emotional_register"
)

// Categories lists all observation categories in their canonical order.
var Categories = []string{
	CategoryStructure,
	CategoryPhrase,
	CategoryMetaphor,
	CategoryOpening,
	CategoryClosing,
	CategoryRhythm,
	CategoryRegister,
}

// Profile is the cumulative voice signature: seven key→count mappings plus
// the number of analyzed reflections. Counts only ever increase.
type Profile struct {
	SentenceStructures  map[string]int `json:"sentence_structures"`
	RecurringPhrases    map[string]int `json:"recurring_phrases"`
	MetaphorVocabulary  map[string]int `json:"metaphor_vocabulary"`
	OpeningPatterns     map[string]int `json:"opening_patterns"`
	ClosingPatterns     map[string]int `json:"closing_patterns"`
	RhythmicPreferences map[string]int `json:"rhythmic_preferences"`
	EmotionalRegisters  map[string]int `json:"emotional_registers"`

	TotalReflections int       `json:"total_reflections"`
	LastEvolution    time.Time `json:"last_evolution,omitzero"`
}

// NewProfile returns an empty profile with all maps initialized.
func NewProfile() Profile {
	return Profile{
		SentenceStructures:  map[string]int{},
		RecurringPhrases:    map[string]int{},
		MetaphorVocabulary:  map[string]int{},
		OpeningPatterns:     map[string]int{},
		ClosingPatterns:     map[string]int{},
		RhythmicPreferences: map[string]int{},
		EmotionalRegisters:  map[string]int{},
	}
}

// Category returns the count map for a category name, or nil for an unknown
// category.
func (p *Profile) Category(name string) map[string]int {
	switch name {
	case CategoryStructure:
		return p.SentenceStructures
	case CategoryPhrase:
		return p.RecurringPhrases
	case CategoryMetaphor:
		return p.MetaphorVocabulary
	case CategoryOpening:
		return p.OpeningPatterns
	case CategoryClosing:
		return p.ClosingPatterns
	case CategoryRhythm:
		return p.RhythmicPreferences
	case CategoryRegister:
		return p.EmotionalRegisters
	}
	return nil
}

// Apply merges one blob's observations into the profile. TotalReflections
// grows by exactly one per call, never per observation.
func (p *Profile) Apply(obs Observations) {
	for _, s := range obs.Structures {
		p.SentenceStructures[s]++
	}
	for _, phrase := range obs.Phrases {
		p.RecurringPhrases[phrase]++
	}
	for _, m := range obs.Metaphors {
		p.MetaphorVocabulary[m]++
	}
	if obs.HasBounds {
		p.OpeningPatterns[obs.Opening]++
		p.ClosingPatterns[obs.Closing]++
	}
	p.RhythmicPreferences[obs.Rhythm]++
	p.EmotionalRegisters[obs.Register]++
	p.TotalReflections++
}

// Learn analyzes a text blob and applies its observations in one step.
func (p *Profile) Learn(text string) {
	p.Apply(Analyze(text))
}

// Entry is a single key with its occurrence count.
type Entry struct {
	Key   string
	Count int
}

// Entries returns a category's contents in a stable order: key-ascending.
// Map iteration in Go is randomized, so every consumer that needs
// reproducible walks (weighted sampling, reports) goes through here.
func (p *Profile) Entries(category string) []Entry {
	m := p.Category(category)
	entries := make([]Entry, 0, len(m))
	for k, v := range m {
		entries = append(entries, Entry{Key: k, Count: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// TopEntries returns up to n entries ordered by count descending; ties keep
// key-ascending order.
func (p *Profile) TopEntries(category string, n int) []Entry {
	entries := p.Entries(category)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Clone returns a deep copy. Composers hold a clone so generation can never
// mutate learned state.
func (p *Profile) Clone() Profile {
	cp := NewProfile()
	cp.TotalReflections = p.TotalReflections
	cp.LastEvolution = p.LastEvolution
	for _, cat := range Categories {
		dst := cp.Category(cat)
		for k, v := range p.Category(cat) {
			dst[k] = v
		}
	}
	return cp
}
