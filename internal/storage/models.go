package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// VoiceSnapshot is the persisted form of the voice profile: flat
// category→key→count mappings plus scalars. The voice package converts
// between this and its richer Profile type.
type VoiceSnapshot struct {
	Counts           map[string]map[string]int
	TotalReflections int
	LastEvolution    time.Time
}

// Reflection is one generated response, archived alongside the file written
// to the prompt-responses directory.
type Reflection struct {
	ID        string
	CreatedAt time.Time
	Prompt    string
	Essence   string
	Resonance float64
	Mode      string // "seed", "fragment", "weave", "synthesis" or "adaptive"
	Content   string
}

// Seed is a threshold question: planted with no answer, tended later.
type Seed struct {
	ID         string
	PlantedAt  time.Time
	Question   string
	Reflection string
	TendedAt   time.Time // zero until tended
}

// Prompt is a queued question waiting for the responder worker.
type Prompt struct {
	ID        string
	Question  string
	Status    string // "pending", "running", "completed", "failed"
	Attempts  int
	CreatedAt time.Time
	UpdatedAt time.Time
	LastError string
}
