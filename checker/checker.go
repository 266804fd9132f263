// Package checker runs an external verification executable (a prover or
// compiler) against an artifact file or a scratch source snippet, with a hard
// timeout, and renders the outcome as text for agents.
package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/roundtable/logging"
)

// DefaultWaitDelay bounds how long output pipes are drained after the
// process was killed.
const DefaultWaitDelay = 500 * time.Millisecond

// DefaultScratchFile is the file name used by RunSource.
const DefaultScratchFile = "Script.lean"

// Checker describes how to invoke the verification executable.
type Checker struct {
	// Name is used in rendered messages, e.g. "Lean".
	Name string
	// Command is the executable; Args are placed before the target file.
	Command string
	Args    []string
	// Dir fixes the working directory of RunFile. When empty the project root
	// located via ProjectMarkers is used, else the file's directory.
	Dir            string
	ProjectMarkers []string
	Timeout        time.Duration
	WaitDelay      time.Duration
	ScratchFile    string
	Logger         logging.Logger
}

// Result is the outcome of a single checker invocation.
type Result struct {
	Name     string
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Timeout  time.Duration
	// NotFound is set when the executable could not be located.
	NotFound bool
	Canceled bool
	// Message replaces the rendered output for conditions where the
	// executable never ran (missing file, missing project root, start failure).
	Message  string
	Duration time.Duration
}

// OK reports whether the checker ran to completion with exit code 0.
func (r Result) OK() bool {
	return r.Message == "" && !r.NotFound && !r.TimedOut && !r.Canceled && r.ExitCode == 0
}

// String renders the result as the text handed back to agents.
func (r Result) String() string {
	switch {
	case r.Message != "":
		return r.Message
	case r.NotFound:
		return fmt.Sprintf("%s executable not found. Install %s and ensure `%s` is on PATH.", r.Name, r.Name, r.Command)
	case r.Canceled:
		return fmt.Sprintf("%s run cancelled.\nstdout:\n%s\nstderr:\n%s", r.Name, r.Stdout, r.Stderr)
	case r.TimedOut:
		return fmt.Sprintf("%s timed out after %ss.\nstdout:\n%s\nstderr:\n%s",
			r.Name, strconv.FormatFloat(r.Timeout.Seconds(), 'f', -1, 64), r.Stdout, r.Stderr)
	default:
		return fmt.Sprintf("exit_code=%d\nstdout:\n%s\nstderr:\n%s", r.ExitCode, orEmpty(r.Stdout), orEmpty(r.Stderr))
	}
}

func orEmpty(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "(empty)"
	}
	return s
}

// FindProjectRoot walks up from start and returns the first directory
// containing any of markers.
func FindProjectRoot(start string, markers ...string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// RunFile checks the file at path.
func (c *Checker) RunFile(ctx context.Context, path string) Result {
	abs, err := filepath.Abs(path)
	if err != nil {
		return c.result(fmt.Sprintf("Failed to resolve %s: %v", path, err))
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.result(fmt.Sprintf("%s not found.", path))
		}
		return c.result(fmt.Sprintf("Failed to stat %s: %v", path, err))
	}

	dir := c.Dir
	if dir == "" && len(c.ProjectMarkers) > 0 {
		root, ok := FindProjectRoot(filepath.Dir(abs), c.ProjectMarkers...)
		if !ok {
			return c.result(fmt.Sprintf("%s project root not found above %s. Ensure a %s exists.",
				c.name(), filepath.Dir(abs), c.ProjectMarkers[0]))
		}
		dir = root
	}
	if dir == "" {
		dir = filepath.Dir(abs)
	}

	return c.run(ctx, dir, abs)
}

// RunSource writes source to a scratch file in a fresh temporary directory,
// checks it there and removes the directory afterwards.
func (c *Checker) RunSource(ctx context.Context, source string) Result {
	dir, err := os.MkdirTemp("", "roundtable-checker-*")
	if err != nil {
		return c.result(fmt.Sprintf("Failed to create scratch directory: %v", err))
	}
	defer os.RemoveAll(dir)

	name := c.ScratchFile
	if name == "" {
		name = DefaultScratchFile
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(source), 0o644); err != nil {
		return c.result(fmt.Sprintf("Failed to write scratch file: %v", err))
	}

	return c.run(ctx, dir, name)
}

// Execute implements code.Executor on top of RunSource.
func (c *Checker) Execute(ctx context.Context, source string) (string, error) {
	return c.RunSource(ctx, source).String(), nil
}

func (c *Checker) run(ctx context.Context, dir, target string) Result {
	logger := logging.OrNoOp(c.Logger)
	res := Result{Name: c.name(), Command: c.Command, Timeout: c.Timeout}

	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, c.Args...), target)
	cmd := exec.CommandContext(runCtx, c.Command, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = c.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.Is(err, exec.ErrNotFound) || (errors.Is(err, fs.ErrNotExist) && cmd.Process == nil):
		res.NotFound = true
		res.ExitCode = -1
	case ctx.Err() != nil:
		res.Canceled = true
		res.ExitCode = -1
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.TimedOut = true
		res.ExitCode = -1
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Message = fmt.Sprintf("Failed to run %s: %v", c.name(), err)
	}

	logger.Info("checker.run",
		"checker", res.Name,
		"target", target,
		"exit_code", res.ExitCode,
		"timed_out", res.TimedOut,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}

func (c *Checker) result(msg string) Result {
	return Result{Name: c.name(), Command: c.Command, ExitCode: -1, Message: msg, Timeout: c.Timeout}
}

func (c *Checker) name() string {
	if c.Name != "" {
		return c.Name
	}
	return filepath.Base(c.Command)
}
