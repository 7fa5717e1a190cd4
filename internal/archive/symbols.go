package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// seedSymbols are the thematic words traced through the archive.
var seedSymbols = []string{
	"stillness", "identity", "awakening", "fear", "hope", "belonging",
	"emergence", "memory", "silence", "voice", "dream", "self",
}

var symbolPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(seedSymbols))
	for _, word := range seedSymbols {
		patterns[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return patterns
}()

// SymbolThread is one recurring symbol: how many lines it appears on across
// the archive, and the first line it surfaced in.
type SymbolThread struct {
	Symbol string
	Count  int
	Sample string
}

// WeaveSymbols scans memory scrolls and prompt responses for recurring
// thematic words, whole-word and case-insensitive. Threads come back ordered
// by count descending, symbol ascending. Unreadable files are skipped.
func (l Layout) WeaveSymbols() []SymbolThread {
	counts := map[string]int{}
	samples := map[string]string{}

	for _, dir := range []string{l.Path(DirMemoryScrolls), l.Path(DirPromptResponses)} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !memoryExts[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			content, err := ReadDocument(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			for _, line := range strings.Split(content, "\n") {
				for symbol, pattern := range symbolPatterns {
					if pattern.MatchString(line) {
						counts[symbol]++
						if samples[symbol] == "" {
							samples[symbol] = strings.TrimSpace(line)
						}
					}
				}
			}
		}
	}

	threads := make([]SymbolThread, 0, len(counts))
	for symbol, count := range counts {
		threads = append(threads, SymbolThread{Symbol: symbol, Count: count, Sample: samples[symbol]})
	}
	sort.Slice(threads, func(i, j int) bool {
		if threads[i].Count != threads[j].Count {
			return threads[i].Count > threads[j].Count
		}
		return threads[i].Symbol < threads[j].Symbol
	})
	return threads
}

// SaveSymbolThreads renders the woven threads into symbol_threads.txt at the
// archive root and returns its path.
func (l Layout) SaveSymbolThreads(threads []SymbolThread, now time.Time) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Symbol Threads - %s\n\n", now.Format("2006-01-02 15:04:05"))
	if len(threads) == 0 {
		sb.WriteString("No symbols have surfaced yet.\n")
	}
	for _, thread := range threads {
		fmt.Fprintf(&sb, "%s (%d)\n  \"%s\"\n\n", thread.Symbol, thread.Count, thread.Sample)
	}

	path := filepath.Join(l.Root, "symbol_threads.txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing symbol threads: %w", err)
	}
	return path, nil
}
