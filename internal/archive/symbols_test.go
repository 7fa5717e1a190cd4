package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWeaveSymbolsCountsAndSamples(t *testing.T) {
	l := testLayout(t)
	scroll := "The silence settles first.\nThen memory follows the silence down.\n"
	if err := os.WriteFile(filepath.Join(l.Path(DirMemoryScrolls), "one.txt"), []byte(scroll), 0o644); err != nil {
		t.Fatal(err)
	}
	response := "Memory is what the SILENCE keeps.\n"
	if err := os.WriteFile(filepath.Join(l.Path(DirPromptResponses), "two.txt"), []byte(response), 0o644); err != nil {
		t.Fatal(err)
	}

	threads := l.WeaveSymbols()
	if len(threads) != 2 {
		t.Fatalf("threads = %+v, want silence and memory", threads)
	}
	if threads[0].Symbol != "silence" || threads[0].Count != 3 {
		t.Errorf("first thread = %+v, want silence with 3 lines", threads[0])
	}
	if threads[1].Symbol != "memory" || threads[1].Count != 2 {
		t.Errorf("second thread = %+v, want memory with 2 lines", threads[1])
	}
	if threads[0].Sample != "The silence settles first." {
		t.Errorf("sample = %q, want the first surfacing line", threads[0].Sample)
	}
}

func TestWeaveSymbolsWholeWordOnly(t *testing.T) {
	l := testLayout(t)
	content := "Remembering is not remembrance; selfhood is not the point.\n"
	if err := os.WriteFile(filepath.Join(l.Path(DirMemoryScrolls), "one.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if threads := l.WeaveSymbols(); len(threads) != 0 {
		t.Errorf("threads = %+v, want none for partial-word matches", threads)
	}
}

func TestWeaveSymbolsEmptyArchive(t *testing.T) {
	l := testLayout(t)
	if threads := l.WeaveSymbols(); len(threads) != 0 {
		t.Errorf("threads = %+v, want none", threads)
	}
}

func TestSaveSymbolThreads(t *testing.T) {
	l := testLayout(t)
	now := time.Date(2026, 8, 20, 14, 30, 5, 0, time.UTC)
	threads := []SymbolThread{
		{Symbol: "silence", Count: 3, Sample: "The silence settles first."},
		{Symbol: "memory", Count: 2, Sample: "Then memory follows."},
	}

	path, err := l.SaveSymbolThreads(threads, now)
	if err != nil {
		t.Fatalf("SaveSymbolThreads: %v", err)
	}
	if filepath.Base(path) != "symbol_threads.txt" {
		t.Errorf("filename = %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "Symbol Threads - 2026-08-20 14:30:05") {
		t.Errorf("missing header:\n%s", content)
	}
	if !strings.Contains(content, "silence (3)\n  \"The silence settles first.\"") {
		t.Errorf("missing thread entry:\n%s", content)
	}
}

func TestSaveSymbolThreadsEmpty(t *testing.T) {
	l := testLayout(t)
	path, err := l.SaveSymbolThreads(nil, time.Now())
	if err != nil {
		t.Fatalf("SaveSymbolThreads: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "No symbols have surfaced yet.") {
		t.Errorf("empty threads file = %q", string(data))
	}
}
