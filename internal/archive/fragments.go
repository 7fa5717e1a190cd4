package archive

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Fragment is one surfaced memory: where it came from, its title and its
// text content.
type Fragment struct {
	Source  string
	Title   string
	Content string
}

const (
	multipleFragmentsProbability = 0.5
	minFragments                 = 2
	maxFragments                 = 3
	readConcurrency              = 4
)

// Gatherer surfaces memory fragments from the archive's memory sources.
type Gatherer struct {
	layout Layout
	rng    *rand.Rand
	logger *slog.Logger
}

// NewGatherer creates a Gatherer. The rand source drives how many fragments
// surface and which; pass nil for a time-seeded one, tests inject a seeded
// one.
func NewGatherer(layout Layout, rng *rand.Rand) *Gatherer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Gatherer{layout: layout, rng: rng, logger: slog.Default()}
}

// Gather selects memory files at random (one, or two to three half the
// time) and loads them concurrently. Unreadable files are logged and
// dropped; an archive with no memories yields an empty slice, not an error.
func (g *Gatherer) Gather(ctx context.Context) ([]Fragment, error) {
	candidates := g.listMemoryFiles()
	if len(candidates) == 0 {
		return nil, nil
	}

	count := 1
	if g.rng.Float64() < multipleFragmentsProbability {
		count = minFragments + g.rng.Intn(maxFragments-minFragments+1)
	}
	if count > len(candidates) {
		count = len(candidates)
	}

	perm := g.rng.Perm(len(candidates))
	chosen := make([]string, count)
	for i := 0; i < count; i++ {
		chosen[i] = candidates[perm[i]]
	}

	fragments := make([]Fragment, len(chosen))
	var mu sync.Mutex
	var failed []int

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(readConcurrency)
	for i, path := range chosen {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := ReadDocument(path)
			if err != nil {
				g.logger.Warn("skipping unreadable memory", "path", path, "error", err)
				mu.Lock()
				failed = append(failed, i)
				mu.Unlock()
				return nil
			}
			fragments[i] = Fragment{
				Source:  filepath.Base(filepath.Dir(path)),
				Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				Content: strings.TrimSpace(content),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if len(failed) > 0 {
		sort.Sort(sort.Reverse(sort.IntSlice(failed)))
		for _, i := range failed {
			fragments = append(fragments[:i], fragments[i+1:]...)
		}
	}
	return fragments, nil
}

// listMemoryFiles enumerates every readable memory document across all
// memory sources, in source order.
func (g *Gatherer) listMemoryFiles() []string {
	var files []string
	for _, dir := range g.layout.MemorySources() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !memoryExts[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files
}
