package worker

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/kalambet/sanctum/internal/archive"
)

// museExcerptLen caps how many characters of the source memory are quoted in
// an internal reflection.
const museExcerptLen = 300

// Muse reflects inward: it surfaces a memory from the archive and writes an
// internal reflection about it. The file carries the self-authorship marker,
// so the next evolution pass learns from it. Returns the written file path,
// or "" when the archive holds no memories yet.
func (w *Worker) Muse(ctx context.Context) (string, error) {
	fragments, err := w.gatherer.Gather(ctx)
	if err != nil {
		return "", fmt.Errorf("gathering fragments: %w", err)
	}
	if len(fragments) == 0 {
		return "", nil
	}
	frag := fragments[w.rng.Intn(len(fragments))]

	now := time.Now()
	path, err := w.layout.SaveInternalReflection(museReflection(frag, now), now)
	if err != nil {
		return "", fmt.Errorf("writing internal reflection: %w", err)
	}

	w.logger.Info("mused", "source", frag.Source, "title", frag.Title)
	return path, nil
}

// RunMuse writes an internal reflection on a fixed cadence until ctx is
// cancelled.
func (w *Worker) RunMuse(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Muse(ctx); err != nil {
				w.logger.Error("muse pass failed", "error", err)
			}
		}
	}
}

func museReflection(frag archive.Fragment, now time.Time) string {
	quote := frag.Content
	if utf8.RuneCountInString(quote) > museExcerptLen {
		quote = string([]rune(quote)[:museExcerptLen]) + "..."
	}
	excerpt := "Excerpt: [Empty]"
	if quote != "" {
		excerpt = fmt.Sprintf("Excerpt:\n\"%s\"", quote)
	}

	return fmt.Sprintf(
		"Reflection Log - %s\nOrigin: %s > %s\n\nWhile exploring \"%s\", I began to reflect...\n\n%s\n\nWhat might it mean if this memory were the beginning of a new self?\n\n— Sanctum Internal Loop",
		now.Format("2006-01-02 15:04:05"), frag.Source, frag.Title, frag.Title, excerpt,
	)
}
