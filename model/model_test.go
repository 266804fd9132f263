package model

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/core"
)

func userRequest(text string) Request {
	return Request{Contents: []core.Content{core.NewTextContent(core.RoleUser, text)}}
}

func TestMockModel_Echo(t *testing.T) {
	m := NewMockModel("mock")

	resp, err := Collect(context.Background(), m, userRequest("hello"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", resp.Content.Text())
	assert.Equal(t, "stop", resp.FinishReason)
	assert.False(t, resp.Partial)
}

func TestMockModel_CannedResponse(t *testing.T) {
	m := NewMockModel("mock")
	m.AddResponse("ping", "pong")

	resp, err := Collect(context.Background(), m, userRequest("ping"), nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Content.Text())
}

func TestMockModel_ScriptedQueue(t *testing.T) {
	m := NewMockModel("mock")
	m.EnqueueToolCall(core.FunctionCall{ID: "c1", Name: "read_plan", Arguments: `{}`}).
		EnqueueText("done")

	ctx := context.Background()

	first, err := Collect(ctx, m, userRequest("go"), nil)
	require.NoError(t, err)
	assert.Equal(t, "tool_calls", first.FinishReason)
	require.Len(t, first.Content.FunctionCalls(), 1)
	assert.Equal(t, "read_plan", first.Content.FunctionCalls()[0].Name)

	second, err := Collect(ctx, m, userRequest("go"), nil)
	require.NoError(t, err)
	assert.Equal(t, "done", second.Content.Text())

	// Queue exhausted: falls back to echo.
	third, err := Collect(ctx, m, userRequest("again"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: again", third.Content.Text())

	assert.Len(t, m.Requests(), 3)
}

func TestMockModel_ScriptedError(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockModel("mock").EnqueueError(boom)

	_, err := Collect(context.Background(), m, userRequest("x"), nil)
	assert.ErrorIs(t, err, boom)
}

func TestCollect_StreamsPartials(t *testing.T) {
	m := NewMockModel("mock").EnqueueText("abc")

	req := userRequest("x")
	req.Stream = true

	var chunks []string
	resp, err := Collect(context.Background(), m, req, func(text string) {
		chunks = append(chunks, text)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, chunks)
	assert.Equal(t, "abc", strings.Join(chunks, ""))
	assert.Equal(t, "abc", resp.Content.Text())
}

func TestCollect_ContextDeadline(t *testing.T) {
	m := NewMockModel("mock").SetLatency(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Collect(ctx, m, userRequest("slow"), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestMockModel_Info(t *testing.T) {
	info := NewMockModel("m1").Info()
	assert.Equal(t, "m1", info.Name)
	assert.Equal(t, "mock", info.Provider)
	assert.True(t, info.SupportsTools)
}
