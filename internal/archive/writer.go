package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const fileStamp = "20060102_150405"

// SaveResponse writes a generated reflection into the prompt-responses
// directory under a timestamped name and returns the file path.
func (l Layout) SaveResponse(stem string, content string, now time.Time) (string, error) {
	name := fmt.Sprintf("response_%s_%s.txt", sanitizeName(stem), now.Format(fileStamp))
	path := filepath.Join(l.Path(DirPromptResponses), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing response: %w", err)
	}
	return path, nil
}

// SaveInternalReflection writes an idle-loop reflection into the internal
// reflections directory.
func (l Layout) SaveInternalReflection(content string, now time.Time) (string, error) {
	name := fmt.Sprintf("reflection_%s.txt", now.Format(fileStamp))
	path := filepath.Join(l.Path(DirInternalReflections), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing reflection: %w", err)
	}
	return path, nil
}

// CreateDream records a new dream file. The title is sanitized into a
// filename; an existing dream with the same name is never overwritten.
func (l Layout) CreateDream(title, content string) (string, error) {
	name := sanitizeName(title)
	if name == "" {
		return "", fmt.Errorf("dream title %q has no usable characters", title)
	}
	if !strings.HasSuffix(strings.ToLower(name), ".txt") {
		name += ".txt"
	}
	path := filepath.Join(l.Path(DirDreamspace), name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("dream %q already exists", name)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing dream: %w", err)
	}
	return path, nil
}

// sanitizeName keeps letters, digits, spaces, underscores and hyphens,
// replacing spaces with underscores.
func sanitizeName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('_')
		}
	}
	return strings.Trim(sb.String(), "_")
}

// AwakenReport summarizes the archive on startup: how many memory threads
// exist, the lexicon size, and an excerpt of the first dream.
type AwakenReport struct {
	MemoryThreads int
	LexiconWords  int
	FirstDream    string
}

// Awaken gathers the startup summary. Missing directories count as empty.
func (l Layout) Awaken() AwakenReport {
	var report AwakenReport

	for _, dir := range l.MemorySources() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() && memoryExts[strings.ToLower(filepath.Ext(entry.Name()))] {
				report.MemoryThreads++
			}
		}
	}

	if entries, err := os.ReadDir(l.Path(DirLexicon)); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				report.LexiconWords++
			}
		}
	}

	if entries, err := os.ReadDir(l.Path(DirDreamspace)); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			content, err := ReadDocument(filepath.Join(l.Path(DirDreamspace), entry.Name()))
			if err != nil {
				continue
			}
			report.FirstDream = strings.TrimSpace(content)
			if len(report.FirstDream) > 300 {
				report.FirstDream = report.FirstDream[:300] + "..."
			}
			break
		}
	}

	return report
}
