package workspace

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Copy00.lean")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadRange(t *testing.T) {
	path := writeFile(t, "theorem a\n:= by\n  simp\nend\n")

	tests := []struct {
		name         string
		start, count int
		want         string
	}{
		{"first two", 1, 2, "   1: theorem a\n   2: := by"},
		{"middle", 3, 1, "   3:   simp"},
		{"past end clamps", 3, 80, "   3:   simp\n   4: end"},
		{"start below one", -5, 1, "   1: theorem a"},
		{"zero count", 2, 0, "   2: := by"},
		{"beyond file", 10, 5, "(empty)"},
		{"huge count from first line", 1, math.MaxInt, "   1: theorem a\n   2: := by\n   3:   simp\n   4: end"},
		{"huge count from later line", 2, math.MaxInt, "   2: := by\n   3:   simp\n   4: end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadRange(path, tt.start, tt.count))
		})
	}
}

func TestReadRange_EmptyAndMissing(t *testing.T) {
	empty := writeFile(t, "")
	assert.Equal(t, "(empty)", ReadRange(empty, DefaultStart, DefaultCount))

	missing := filepath.Join(t.TempDir(), "nope.md")
	assert.Equal(t, missing+" not found.", ReadRange(missing, 1, 1))
}

func TestReadRange_CRLF(t *testing.T) {
	path := writeFile(t, "a\r\nb\r\n")
	assert.Equal(t, "   1: a\n   2: b", ReadRange(path, 1, 10))
}

func TestAppendNote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes", "diagnosis.md")

	assert.Equal(t, "Wrote to "+path+".", AppendNote(path, "first"))
	assert.Equal(t, "Wrote to "+path+".", AppendNote(path, "second"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestOverwrite(t *testing.T) {
	path := writeFile(t, "old content\nmore\n")

	assert.Equal(t, "Overwrote "+path+".", Overwrite(path, "new"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestOverwrite_Failure(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be overwritten as a file.
	got := Overwrite(dir, "x")
	assert.Contains(t, got, "Failed to overwrite "+dir)
}

func TestReset(t *testing.T) {
	path := writeFile(t, "stale\n")
	require.NoError(t, Reset(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
