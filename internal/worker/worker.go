// Package worker runs the responder loop: queued prompts are claimed from
// storage one at a time, answered in the sanctum's current voice, archived
// and written out as response files.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/sanctum/internal/archive"
	"github.com/kalambet/sanctum/internal/composer"
	"github.com/kalambet/sanctum/internal/resonance"
	"github.com/kalambet/sanctum/internal/storage"
	"github.com/kalambet/sanctum/internal/voice"
)

// PromptStore abstracts the queue and archive operations the worker needs.
type PromptStore interface {
	ClaimNextPrompt() (*storage.Prompt, error)
	CompletePrompt(id string) error
	FailPrompt(id string, errMsg string) error
	SaveReflection(r storage.Reflection) error
	LoadVoiceSnapshot() (storage.VoiceSnapshot, error)
}

// FragmentGatherer surfaces memory fragments for a reflection.
type FragmentGatherer interface {
	Gather(ctx context.Context) ([]archive.Fragment, error)
}

// Worker polls the prompt queue and generates reflections.
type Worker struct {
	store    PromptStore
	gatherer FragmentGatherer
	layout   archive.Layout
	rng      *rand.Rand
	poll     time.Duration
	logger   *slog.Logger
}

// New creates a Worker. If pollInterval is <= 0, it defaults to 500ms; a nil
// rng gets a time-seeded source.
func New(store PromptStore, gatherer FragmentGatherer, layout archive.Layout, rng *rand.Rand, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Worker{
		store:    store,
		gatherer: gatherer,
		layout:   layout,
		rng:      rng,
		poll:     pollInterval,
		logger:   slog.Default(),
	}
}

// Run polls for prompts until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and answers a single prompt. Returns true if a prompt was
// processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	prompt, err := w.store.ClaimNextPrompt()
	if err != nil {
		return false, fmt.Errorf("claiming prompt: %w", err)
	}
	if prompt == nil {
		return false, nil
	}

	if err := w.respond(ctx, prompt); err != nil {
		w.logger.Warn("prompt failed", "prompt_id", prompt.ID, "error", err)
		if failErr := w.store.FailPrompt(prompt.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark prompt as failed", "prompt_id", prompt.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompletePrompt(prompt.ID); err != nil {
		return true, fmt.Errorf("completing prompt %s: %w", prompt.ID, err)
	}
	return true, nil
}

func (w *Worker) respond(ctx context.Context, prompt *storage.Prompt) error {
	profile, err := voice.Load(w.store)
	if err != nil {
		return fmt.Errorf("loading voice profile: %w", err)
	}

	fragments, err := w.gatherer.Gather(ctx)
	if err != nil {
		return fmt.Errorf("gathering fragments: %w", err)
	}

	now := time.Now()
	reflection := Generate(profile, prompt.Question, fragments, w.rng, now)
	reflection.ID = uuid.New().String()
	reflection.CreatedAt = now.UTC()
	reflection.Prompt = prompt.Question

	if err := w.store.SaveReflection(reflection); err != nil {
		return fmt.Errorf("saving reflection: %w", err)
	}

	if _, err := w.layout.SaveResponse(shortID(prompt.ID), reflection.Content, now); err != nil {
		return fmt.Errorf("writing response file: %w", err)
	}

	w.logger.Info("reflected", "prompt_id", prompt.ID, "mode", reflection.Mode, "essence", reflection.Essence)
	return nil
}

// shortID trims an id to its 8-character stem for filenames. Storage accepts
// arbitrary ids, so shorter ones pass through whole.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Generate produces a reflection for a question: the adaptive composer once
// the voice profile has learned from anything, the templated responder
// before that (and always for an empty memory archive at seed depth).
func Generate(profile voice.Profile, question string, fragments []archive.Fragment, rng *rand.Rand, now time.Time) storage.Reflection {
	if profile.TotalReflections > 0 && len(fragments) > 0 {
		writer := composer.NewWriter(profile, rng)
		essence := resonance.Essence(question)
		return storage.Reflection{
			Essence:   essence,
			Resonance: resonance.Measure(question, fragments),
			Mode:      "adaptive",
			Content:   writer.ComposeReflection(question, fragments, essence),
		}
	}

	result := resonance.Respond(question, fragments, now)
	return storage.Reflection{
		Essence:   result.Essence,
		Resonance: result.Resonance,
		Mode:      result.Mode,
		Content:   result.Content,
	}
}
