// Package sandbox is a contained workspace for scripts the sanctum writes
// for itself. Every path is checked against the sandbox root before use and
// execution runs under a hard timeout.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// execTimeout bounds how long a sandboxed script may run.
const execTimeout = 30 * time.Second

// Controller manages files inside one sandbox directory.
type Controller struct {
	root        string
	interpreter string
}

// New creates a Controller rooted at root. The interpreter runs sandboxed
// scripts; empty defaults to "python3".
func New(root, interpreter string) (*Controller, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving sandbox root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating sandbox: %w", err)
	}
	if interpreter == "" {
		interpreter = "python3"
	}
	return &Controller{root: abs, interpreter: interpreter}, nil
}

// resolve turns a sandbox-relative name into an absolute path, rejecting
// anything that escapes the root.
func (c *Controller) resolve(name string) (string, error) {
	path := filepath.Join(c.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(c.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the sandbox", name)
	}
	return path, nil
}

// Create writes a file inside the sandbox, creating parent directories as
// needed.
func (c *Controller) Create(name, content string) error {
	path, err := c.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// List returns all sandbox file paths relative to the root, sorted.
// README.md is kept out of listings.
func (c *Controller) List() ([]string, error) {
	var files []string
	err := filepath.WalkDir(c.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() == "README.md" {
			return nil
		}
		rel, err := filepath.Rel(c.root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Clear deletes everything in the sandbox except README.md.
func (c *Controller) Clear() error {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == "README.md" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.root, entry.Name())); err != nil {
			return fmt.Errorf("removing %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Output captures the result of a sandboxed script run.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes a script inside the sandbox with the sandbox as working
// directory. Only .py files are runnable; execution is cut off at the
// timeout.
func (c *Controller) Run(ctx context.Context, name string, args []string) (Output, error) {
	path, err := c.resolve(name)
	if err != nil {
		return Output{}, err
	}
	if filepath.Ext(path) != ".py" {
		return Output{}, fmt.Errorf("%q is not a runnable script", name)
	}
	if _, err := os.Stat(path); err != nil {
		return Output{}, fmt.Errorf("script not found: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, execTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.interpreter, append([]string{path}, args...)...)
	cmd.Dir = c.root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return out, fmt.Errorf("script timed out after %s", execTimeout)
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if runErr != nil {
		return out, fmt.Errorf("running script: %w", runErr)
	}
	return out, nil
}
