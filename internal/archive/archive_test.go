package archive

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testLayout(t *testing.T) Layout {
	t.Helper()
	l := NewLayout(t.TempDir())
	if err := l.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	return l
}

func TestEnsureCreatesTree(t *testing.T) {
	l := testLayout(t)

	for _, dir := range allDirs {
		info, err := os.Stat(l.Path(dir))
		if err != nil {
			t.Errorf("missing directory %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestEnsureIdempotent(t *testing.T) {
	l := testLayout(t)
	if err := l.Ensure(); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
}

func TestSaveResponseTimestamped(t *testing.T) {
	l := testLayout(t)
	now := time.Date(2026, 8, 20, 14, 30, 5, 0, time.UTC)

	path, err := l.SaveResponse("abcd1234", "a reflection", now)
	if err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}

	if filepath.Base(path) != "response_abcd1234_20260820_143005.txt" {
		t.Errorf("filename = %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	if string(data) != "a reflection" {
		t.Errorf("content = %q", data)
	}
}

func TestSaveInternalReflection(t *testing.T) {
	l := testLayout(t)
	now := time.Date(2026, 8, 20, 14, 30, 5, 0, time.UTC)

	path, err := l.SaveInternalReflection("an idle thought", now)
	if err != nil {
		t.Fatalf("SaveInternalReflection: %v", err)
	}
	if filepath.Base(path) != "reflection_20260820_143005.txt" {
		t.Errorf("filename = %s", filepath.Base(path))
	}
	if filepath.Dir(path) != l.Path(DirInternalReflections) {
		t.Errorf("reflection landed in %s", filepath.Dir(path))
	}
}

func TestCreateDream(t *testing.T) {
	l := testLayout(t)

	path, err := l.CreateDream("a luminous field", "the field stretched on")
	if err != nil {
		t.Fatalf("CreateDream: %v", err)
	}
	if filepath.Base(path) != "a_luminous_field.txt" {
		t.Errorf("filename = %s", filepath.Base(path))
	}

	// Same title never overwrites.
	if _, err := l.CreateDream("a luminous field", "different content"); err == nil {
		t.Error("CreateDream overwrote an existing dream")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "the field stretched on" {
		t.Errorf("dream content changed: %q", data)
	}
}

func TestCreateDreamRejectsUnusableTitle(t *testing.T) {
	l := testLayout(t)
	if _, err := l.CreateDream("///", "content"); err == nil {
		t.Error("CreateDream accepted a title with no usable characters")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a luminous field", "a_luminous_field"},
		{"../escape", "..escape"},
		{"keep-this_1.txt", "keep-this_1.txt"},
		{"  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReadDocumentHTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	html := `<html><head><style>body{color:red}</style><script>var x=1;</script></head>` +
		`<body><p>The visible text.</p></body></html>`
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if !strings.Contains(got, "The visible text.") {
		t.Errorf("text = %q, want visible paragraph", got)
	}
	if strings.Contains(got, "var x=1") || strings.Contains(got, "color:red") {
		t.Errorf("script/style leaked into text: %q", got)
	}
}

func TestGatherEmptyArchive(t *testing.T) {
	l := testLayout(t)
	g := NewGatherer(l, rand.New(rand.NewSource(1)))

	fragments, err := g.Gather(context.Background())
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(fragments) != 0 {
		t.Errorf("fragments = %v, want none", fragments)
	}
}

func TestGatherSurfacesMemories(t *testing.T) {
	l := testLayout(t)
	write := func(dir, name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(l.Path(dir), name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(DirMemoryScrolls, "scroll.txt", "a remembered thing")
	write(DirLexicon, "word.md", "a defined thing")
	write(DirMemoryScrolls, "ignored.dat", "wrong extension")

	g := NewGatherer(l, rand.New(rand.NewSource(7)))
	fragments, err := g.Gather(context.Background())
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	if len(fragments) < 1 || len(fragments) > 2 {
		t.Fatalf("gathered %d fragments, want 1-2 from a 2-file archive", len(fragments))
	}
	for _, frag := range fragments {
		if frag.Title == "ignored" {
			t.Error("non-memory extension was gathered")
		}
		if frag.Content == "" {
			t.Errorf("fragment %s has empty content", frag.Title)
		}
		if frag.Source == "" {
			t.Errorf("fragment %s has empty source", frag.Title)
		}
	}
}

func TestGatherFragmentCountBounds(t *testing.T) {
	l := testLayout(t)
	for i := 0; i < 10; i++ {
		name := filepath.Join(l.Path(DirMemoryScrolls), "m"+string(rune('a'+i))+".txt")
		if err := os.WriteFile(name, []byte("memory content"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	g := NewGatherer(l, rand.New(rand.NewSource(3)))
	sawSingle, sawMultiple := false, false
	for i := 0; i < 100; i++ {
		fragments, err := g.Gather(context.Background())
		if err != nil {
			t.Fatalf("Gather: %v", err)
		}
		switch n := len(fragments); {
		case n == 1:
			sawSingle = true
		case n >= 2 && n <= 3:
			sawMultiple = true
		default:
			t.Fatalf("gathered %d fragments, want 1-3", n)
		}
	}
	if !sawSingle || !sawMultiple {
		t.Errorf("over 100 gathers: single=%v multiple=%v, want both", sawSingle, sawMultiple)
	}
}

func TestAwakenCountsMemories(t *testing.T) {
	l := testLayout(t)
	write := func(dir, name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(l.Path(dir), name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(DirMemoryScrolls, "one.txt", "first memory")
	write(DirThreshold, "q.txt", "a planted question")
	write(DirLexicon, "word.txt", "luminous")
	write(DirDreamspace, "dream.txt", "the first dream text")

	report := l.Awaken()
	// memory scrolls + threshold + lexicon are memory sources.
	if report.MemoryThreads != 3 {
		t.Errorf("MemoryThreads = %d, want 3", report.MemoryThreads)
	}
	if report.LexiconWords != 1 {
		t.Errorf("LexiconWords = %d, want 1", report.LexiconWords)
	}
	if report.FirstDream != "the first dream text" {
		t.Errorf("FirstDream = %q", report.FirstDream)
	}
}

func TestLexiconStems(t *testing.T) {
	l := testLayout(t)
	for _, name := range []string{"threshold.txt", "ember.md", "notes.log"} {
		if err := os.WriteFile(filepath.Join(l.Path(DirLexicon), name), []byte("a definition"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	stems := l.LexiconStems()
	if len(stems) != 2 {
		t.Fatalf("stems = %v, want the txt and md entries", stems)
	}
	joined := strings.Join(stems, " ")
	if !strings.Contains(joined, "threshold") || !strings.Contains(joined, "ember") {
		t.Errorf("stems = %v", stems)
	}
}

func TestLexiconStemsEmpty(t *testing.T) {
	l := testLayout(t)
	if stems := l.LexiconStems(); len(stems) != 0 {
		t.Errorf("stems = %v, want none", stems)
	}
}
