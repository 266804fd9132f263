package checker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/code"
)

var _ code.Executor = (*Checker)(nil)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunFile_ExitCodeAndOutput(t *testing.T) {
	path := writeScript(t, t.TempDir(), "check.sh", "echo hi\necho oops >&2\nexit 3\n")
	c := &Checker{Name: "Shell", Command: "sh", Timeout: 5 * time.Second}

	res := c.RunFile(context.Background(), path)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "hi\n", res.Stdout)
	assert.Equal(t, "oops\n", res.Stderr)
	assert.False(t, res.OK())
	assert.Equal(t, "exit_code=3\nstdout:\nhi\nstderr:\noops", res.String())
}

func TestRunFile_Success(t *testing.T) {
	path := writeScript(t, t.TempDir(), "ok.sh", "exit 0\n")
	c := &Checker{Command: "sh", Timeout: 5 * time.Second}

	res := c.RunFile(context.Background(), path)
	assert.True(t, res.OK())
	assert.Equal(t, "exit_code=0\nstdout:\n(empty)\nstderr:\n(empty)", res.String())
}

func TestRunFile_MissingFile(t *testing.T) {
	c := &Checker{Name: "Lean", Command: "sh"}
	missing := filepath.Join(t.TempDir(), "Copy00.lean")

	res := c.RunFile(context.Background(), missing)
	assert.False(t, res.OK())
	assert.Equal(t, missing+" not found.", res.String())
}

func TestRunFile_ProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "lakefile.lean", "-- project\n")
	path := writeScript(t, root, filepath.Join("Sub", "Dir", "where.sh"), "pwd -P\n")

	c := &Checker{Command: "sh", ProjectMarkers: []string{"lakefile.lean", "lakefile.toml"}, Timeout: 5 * time.Second}
	res := c.RunFile(context.Background(), path)
	require.True(t, res.OK(), res.String())

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, want, strings.TrimSpace(res.Stdout))
}

func TestRunFile_ProjectRootMissing(t *testing.T) {
	path := writeScript(t, t.TempDir(), "a.lean", "")
	c := &Checker{Name: "Lake", Command: "sh", ProjectMarkers: []string{"roundtable-missing-marker.lean"}}

	res := c.RunFile(context.Background(), path)
	assert.False(t, res.OK())
	assert.Contains(t, res.String(), "Lake project root not found above")
	assert.Contains(t, res.String(), "roundtable-missing-marker.lean")
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "lakefile.toml", "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, ok := FindProjectRoot(nested, "lakefile.lean", "lakefile.toml")
	require.True(t, ok)
	assert.Equal(t, root, got)
}

func TestRunSource_Timeout(t *testing.T) {
	c := &Checker{
		Name:      "Shell",
		Command:   "sh",
		Timeout:   200 * time.Millisecond,
		WaitDelay: 100 * time.Millisecond,
	}

	start := time.Now()
	res := c.RunSource(context.Background(), "echo started\nexec sleep 5\n")
	elapsed := time.Since(start)

	assert.True(t, res.TimedOut)
	assert.False(t, res.OK())
	assert.Less(t, elapsed, 2*time.Second)
	assert.Contains(t, res.Stdout, "started")
	assert.True(t, strings.HasPrefix(res.String(), "Shell timed out after 0.2s.\nstdout:\nstarted"))
}

func TestRunSource_ScratchFile(t *testing.T) {
	c := &Checker{Command: "sh", ScratchFile: "AgentScript.lean", Timeout: 5 * time.Second}

	out, err := c.Execute(context.Background(), "echo $0\n")
	require.NoError(t, err)
	assert.Equal(t, "exit_code=0\nstdout:\nAgentScript.lean\nstderr:\n(empty)", out)
}

func TestRun_ExecutableNotFound(t *testing.T) {
	c := &Checker{Name: "Lean", Command: "roundtable-no-such-prover"}

	res := c.RunSource(context.Background(), "theorem x : True := trivial")
	assert.True(t, res.NotFound)
	assert.False(t, res.OK())
	assert.Equal(t, "Lean executable not found. Install Lean and ensure `roundtable-no-such-prover` is on PATH.", res.String())
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &Checker{Name: "Shell", Command: "sh", Timeout: 5 * time.Second}
	res := c.RunSource(ctx, "sleep 5\n")
	assert.False(t, res.OK())
	assert.True(t, res.Canceled || res.Message != "")
}
