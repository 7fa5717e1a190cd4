package voice

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Self-authorship markers. Only writing the sanctum produced itself feeds
// the voice profile; external or user content is skipped.
var selfMarkers = []string{
	"— The Sanctum",
	"— Sanctum",
	"Internal reflection",
}

// learnableExts filters which files in a source directory are analyzed.
var learnableExts = map[string]bool{
	".txt": true,
	".md":  true,
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Evolver scans the learning sources, feeds self-authored files through the
// extractor and persists the grown profile.
type Evolver struct {
	store   ProfileStore
	sources []string
	clock   Clock
	logger  *slog.Logger
}

// NewEvolver creates an Evolver over an ordered list of source directories.
func NewEvolver(store ProfileStore, sources []string) *Evolver {
	return &Evolver{
		store:   store,
		sources: sources,
		clock:   realClock{},
		logger:  slog.Default(),
	}
}

// NewEvolverWithClock creates an Evolver with a custom clock (for testing).
func NewEvolverWithClock(store ProfileStore, sources []string, clock Clock) *Evolver {
	e := NewEvolver(store, sources)
	e.clock = clock
	return e
}

// Result is the outcome of one evolution pass.
type Result struct {
	Profile        Profile
	FilesProcessed int
	Report         string
}

// Run loads the profile, analyzes every eligible file in every source
// directory (in order), saves the updated profile and renders the signature
// report. Missing directories and unreadable files are skipped, never fatal;
// an empty corpus still succeeds with a zero-count report.
func (e *Evolver) Run() (Result, error) {
	profile, err := Load(e.store)
	if err != nil {
		return Result{}, fmt.Errorf("loading voice profile: %w", err)
	}

	processed := 0
	for _, dir := range e.sources {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				e.logger.Warn("skipping unreadable source directory", "dir", dir, "error", err)
			}
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !learnableExts[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				e.logger.Warn("skipping unreadable file", "path", path, "error", err)
				continue
			}
			content := string(data)
			if !selfAuthored(content) {
				continue
			}
			profile.Learn(content)
			processed++
		}
	}

	profile.LastEvolution = e.clock.Now().UTC().Truncate(time.Second)
	if err := e.store.SaveVoiceSnapshot(profile.Snapshot()); err != nil {
		return Result{}, fmt.Errorf("saving voice profile: %w", err)
	}

	return Result{
		Profile:        profile,
		FilesProcessed: processed,
		Report:         Signature(profile),
	}, nil
}

func selfAuthored(content string) bool {
	for _, marker := range selfMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}
