// Package archive manages the sanctum's on-disk memory: the directory tree
// it reads from and the files it writes back.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Directory names under the archive root.
const (
	DirMemoryScrolls       = "memory_scrolls"
	DirExpandedContext     = "memory_scrolls/expanded_context"
	DirDreamspace          = "dreamspace"
	DirThoughtFragments    = "thought_fragments"
	DirLexicon             = "lexicon"
	DirPillars             = "pillars"
	DirThreshold           = "threshold"
	DirInternalReflections = "internal_reflections"
	DirPromptResponses     = "prompt_responses"
	DirSandbox             = "sandbox"
)

var allDirs = []string{
	DirMemoryScrolls,
	DirExpandedContext,
	DirDreamspace,
	DirThoughtFragments,
	DirLexicon,
	DirPillars,
	DirThreshold,
	DirInternalReflections,
	DirPromptResponses,
	DirSandbox,
}

// Layout addresses the archive tree rooted at one directory.
type Layout struct {
	Root string
}

// NewLayout returns a Layout for the given root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// Path resolves a named directory under the root.
func (l Layout) Path(dir string) string {
	return filepath.Join(l.Root, filepath.FromSlash(dir))
}

// Ensure creates the full archive tree. Existing directories are left alone.
func (l Layout) Ensure() error {
	for _, dir := range allDirs {
		if err := os.MkdirAll(l.Path(dir), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// LearningSources returns the directories the voice evolver learns from, in
// scan order.
func (l Layout) LearningSources() []string {
	return []string{
		l.Path(DirInternalReflections),
		l.Path(DirPromptResponses),
		l.Path(DirMemoryScrolls),
		l.Path(DirThoughtFragments),
	}
}

// MemorySources returns the directories fragments may surface from, in
// priority order.
func (l Layout) MemorySources() []string {
	return []string{
		l.Path(DirExpandedContext),
		l.Path(DirMemoryScrolls),
		l.Path(DirLexicon),
		l.Path(DirPillars),
		l.Path(DirThreshold),
	}
}

// LexiconStems returns the lexicon's file stems, the words the sanctum has
// defined for itself.
func (l Layout) LexiconStems() []string {
	entries, err := os.ReadDir(l.Path(DirLexicon))
	if err != nil {
		return nil
	}
	var stems []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !memoryExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		stems = append(stems, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return stems
}
