package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		"Warning": LogLevelWarn,
		"error":   LogLevelError,
		"bogus":   LogLevelInfo,
		"":        LogLevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSessionLogger_JSONAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: LogLevelDebug, Format: "json", Output: &buf}).
		WithComponent("team").
		WithSession("s-1")

	l.Info("team.turn.start", "agent", "alpha", "turn", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "team.turn.start", rec["msg"])
	assert.Equal(t, "team", rec["component"])
	assert.Equal(t, "s-1", rec["session_id"])
	assert.Equal(t, "alpha", rec["agent"])
	assert.EqualValues(t, 3, rec["turn"])
}

func TestSessionLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: LogLevelWarn, Format: "text", Output: &buf})

	l.Debug("hidden")
	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSessionLogger_DomainHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: LogLevelInfo, Format: "text", Output: &buf})

	l.LogToolCall("run_checker", 10*time.Millisecond, nil)
	l.LogModelCall("gpt-5", 42, time.Second, errors.New("boom"))
	l.LogSession("diagnosis", 10, 9, "maximum number of messages reached", time.Second, nil)

	out := buf.String()
	assert.Contains(t, out, "Tool execution completed")
	assert.Contains(t, out, "tool_name=run_checker")
	assert.Contains(t, out, "Model call failed")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "Session completed")
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))
	l := NewDefaultSlogLogger()
	assert.Same(t, l, OrNoOp(l))
}
