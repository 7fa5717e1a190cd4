package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func testController(t *testing.T) *Controller {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "sandbox"), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "sandbox")
	if _, err := New(root, ""); err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Fatalf("sandbox root not created: %v", err)
	}
}

func TestCreateAndList(t *testing.T) {
	c := testController(t)

	if err := c.Create("notes.txt", "a note"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.Create("scripts/tool.py", "print('ok')"); err != nil {
		t.Fatalf("Create nested: %v", err)
	}
	if err := c.Create("README.md", "about this sandbox"); err != nil {
		t.Fatalf("Create README: %v", err)
	}

	files, err := c.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"notes.txt", filepath.Join("scripts", "tool.py")}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("List = %v, want %v", files, want)
	}
}

func TestCreateRejectsEscape(t *testing.T) {
	c := testController(t)
	for _, name := range []string{"../escape.txt", "..", "a/../../escape.txt"} {
		if err := c.Create(name, "x"); err == nil {
			t.Errorf("Create(%q) escaped the sandbox", name)
		}
	}
}

func TestCreateAllowsInternalDotDot(t *testing.T) {
	c := testController(t)
	// Resolves back inside the root.
	if err := c.Create("a/../inside.txt", "x"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := os.Stat(filepath.Join(c.root, "inside.txt")); err != nil {
		t.Errorf("file not created inside sandbox: %v", err)
	}
}

func TestClearKeepsReadme(t *testing.T) {
	c := testController(t)
	if err := c.Create("README.md", "keep me"); err != nil {
		t.Fatal(err)
	}
	if err := c.Create("scratch.txt", "drop me"); err != nil {
		t.Fatal(err)
	}
	if err := c.Create("deep/nested.txt", "drop me too"); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, err := os.Stat(filepath.Join(c.root, "README.md")); err != nil {
		t.Error("Clear removed README.md")
	}
	files, err := c.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("sandbox not empty after Clear: %v", files)
	}
}

func TestRunRejectsNonScript(t *testing.T) {
	c := testController(t)
	if err := c.Create("notes.txt", "not code"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Run(context.Background(), "notes.txt", nil); err == nil {
		t.Error("Run executed a non-.py file")
	}
}

func TestRunMissingScript(t *testing.T) {
	c := testController(t)
	if _, err := c.Run(context.Background(), "ghost.py", nil); err == nil {
		t.Error("Run succeeded for a missing script")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	// "cat" as interpreter echoes the script back, which exercises the exec
	// path without requiring python3 on the test host.
	c, err := New(filepath.Join(t.TempDir(), "sandbox"), "cat")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Create("echo.py", "script body"); err != nil {
		t.Fatal(err)
	}

	out, err := c.Run(context.Background(), "echo.py", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.Stdout, "script body") {
		t.Errorf("Stdout = %q, want script body", out.Stdout)
	}
	if out.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", out.ExitCode)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	// "false" ignores its arguments and exits 1.
	c, err := New(filepath.Join(t.TempDir(), "sandbox"), "false")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Create("fail.py", ""); err != nil {
		t.Fatal(err)
	}

	out, err := c.Run(context.Background(), "fail.py", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", out.ExitCode)
	}
}
