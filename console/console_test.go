package console

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/agent"
	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/model"
	"github.com/hupe1980/roundtable/team"
)

func TestPrinter_ChatMessages(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.OnMessage(core.NewTextMessage(core.TaskSender, 0, "hi all"))
	p.OnMessage(core.NewTextMessage("alpha", 1, "hello"))
	p.StopReason("done")

	assert.Equal(t, "---------- user ----------\nhi all\n---------- alpha ----------\nhello\nStop reason: done\n", buf.String())
}

func TestPrinter_Streaming(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.OnChunk("s", "alpha", "he")
	p.OnChunk("s", "alpha", "llo")
	p.OnMessage(core.NewTextMessage("alpha", 1, "hello"))
	p.OnMessage(core.NewTextMessage("beta", 2, "bye"))

	assert.Equal(t, "---------- alpha ----------\nhello\n---------- beta ----------\nbye\n", buf.String())
}

func TestPrinter_ToolActivity(t *testing.T) {
	calls := []core.FunctionCall{{ID: "1", Name: "read_plan", Arguments: "{}"}}
	results := []core.FunctionResponse{{ID: "1", Name: "read_plan", Response: "   1: step one\n   2: step two"}}

	var quiet bytes.Buffer
	q := New(&quiet)
	q.OnMessage(core.NewToolCallMessage("executor", 1, "", calls))
	assert.Empty(t, quiet.String())

	var buf bytes.Buffer
	p := New(&buf, WithToolActivity())
	p.OnMessage(core.NewToolCallMessage("executor", 1, "", calls))
	p.OnMessage(core.NewToolResultMessage("executor", 1, results))

	assert.Equal(t, "[executor -> read_plan] {}\n[executor <- read_plan]    1: step one …\n", buf.String())
}

func TestPrinter_Contribution(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.Section("diagnose")
	p.Contribution("Visionary (gpt-4o)", "Visionary: cool roofs")
	p.Println("done")
	assert.Equal(t, "\n=== diagnose ===\n--- Visionary (gpt-4o) ---\nVisionary: cool roofs\ndone\n", buf.String())
}

func TestPrinter_StreamingTeam(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.EnqueueText("abc")

	a := agent.NewModelAgent("alpha", llm, func(o *agent.ModelAgentOptions) { o.Streaming = true })

	var buf bytes.Buffer
	rr, err := team.NewRoundRobin("solo", []agent.Agent{a}, team.WithMaxTurns(1), team.WithObserver(New(&buf)))
	require.NoError(t, err)

	_, err = rr.Run(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "---------- user ----------\ngo\n---------- alpha ----------\nabc\n", buf.String())
}
