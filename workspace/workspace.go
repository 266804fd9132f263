// Package workspace implements the plain-text file operations exposed to
// agents as tools. All operations are advisory: they do not lock and report
// filesystem failures as text so a model can react to them.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Defaults applied by tool bindings when a caller omits start or count.
const (
	DefaultStart = 1
	DefaultCount = 80
)

// ReadRange returns up to count lines of path starting at the 1-indexed line
// start. Each line is rendered as "%4d: text". Values below 1 are raised to 1.
func ReadRange(path string, start, count int) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Sprintf("%s not found.", path)
		}
		return fmt.Sprintf("Failed to read %s: %v", path, err)
	}

	start = max(start, 1)
	count = max(count, 1)

	lines := splitLines(string(data))
	if start > len(lines) {
		return "(empty)"
	}
	count = min(count, len(lines)-start+1)
	end := start - 1 + count

	var b strings.Builder
	for i := start - 1; i < end; i++ {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%4d: %s", i+1, lines[i])
	}
	return b.String()
}

// AppendNote appends content and a newline to path, creating the file and its
// parent directories when missing.
func AppendNote(path, content string) string {
	if err := ensureDir(path); err != nil {
		return fmt.Sprintf("Failed to write %s: %v", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Sprintf("Failed to write %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content + "\n"); err != nil {
		return fmt.Sprintf("Failed to write %s: %v", path, err)
	}
	return fmt.Sprintf("Wrote to %s.", path)
}

// Overwrite replaces the contents of path.
func Overwrite(path, content string) string {
	if err := ensureDir(path); err != nil {
		return fmt.Sprintf("Failed to overwrite %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Sprintf("Failed to overwrite %s: %v", path, err)
	}
	return fmt.Sprintf("Overwrote %s.", path)
}

// Reset truncates path to an empty file, creating it when missing.
func Reset(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, nil, 0o644)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// splitLines splits on \n, \r\n and \r without producing a trailing empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
