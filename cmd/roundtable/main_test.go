package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &out, &bytes.Buffer{}))
	assert.Equal(t, "roundtable dev\n", out.String())
}

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{nil, {"dance"}} {
		var errOut bytes.Buffer
		err := run(context.Background(), args, &bytes.Buffer{}, &errOut)
		assert.ErrorIs(t, err, errUsage)
		assert.Contains(t, errOut.String(), "Usage: roundtable <command>")
	}
}

func TestRun_HistoryRequiresArchive(t *testing.T) {
	t.Setenv("ROUNDTABLE_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("ROUNDTABLE_ARCHIVE_PATH", "")

	err := run(context.Background(), []string{"history"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive is disabled")
}

func TestRun_SmallTalkWithMockModels(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "roundtable.yaml")
	data := `
log:
  level: error
sessions:
  smalltalk:
    max_messages: 3
agents:
  smalltalk:
    starter:
      model: mock-starter
    responder:
      model: mock-responder
archive:
  path: ` + filepath.Join(dir, "archive.db") + `
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(data), 0o644))
	t.Setenv("ROUNDTABLE_CONFIG", cfgPath)
	t.Setenv("ROUNDTABLE_ARCHIVE_PATH", "")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"smalltalk"}, &out, &bytes.Buffer{}))

	text := out.String()
	assert.Contains(t, text, "---------- user ----------\nHave a quick friendly chat about your day and weekend plans.\n")
	assert.Contains(t, text, "---------- starter ----------\nMock response to: ")
	assert.Contains(t, text, "---------- responder ----------\n")
	assert.True(t, strings.HasSuffix(text, "Stop reason: Maximum number of messages 3 reached, current message count: 3\n"))

	var hist bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"history"}, &hist, &bytes.Buffer{}))
	assert.Contains(t, hist.String(), "smalltalk")
	assert.Contains(t, hist.String(), "messages=3 turns=2")
}
