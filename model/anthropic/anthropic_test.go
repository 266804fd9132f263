package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/model"
)

func TestBuildMessages_ToolResultsInUserTurn(t *testing.T) {
	contents := []core.Content{
		core.NewTextContent(core.RoleSystem, "ignored here"),
		core.NewTextContent(core.RoleUser, "user: fix it"),
		{Role: core.RoleAssistant, Parts: []core.Part{
			core.TextPart{Text: "checking"},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "t1", Name: "run_checker", Arguments: `{}`}},
		}},
		{Role: core.RoleTool, Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "t1", Name: "run_checker", Response: "exit_code=0"}},
		}},
		core.NewTextContent(core.RoleUser, "planner: ok"),
	}

	msgs := buildMessages(contents)
	require.Len(t, msgs, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Len(t, msgs[1].Content, 2)
	// Tool result and the following user text merge into one user turn.
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	require.Len(t, msgs[2].Content, 2)
	assert.NotNil(t, msgs[2].Content[0].OfToolResult)
}

func TestExtractSystem(t *testing.T) {
	blocks := extractSystem(model.Request{
		Instructions: "persona",
		Contents:     []core.Content{core.NewTextContent(core.RoleSystem, "extra")},
	})
	require.Len(t, blocks, 2)
	assert.Equal(t, "persona", blocks[0].Text)
	assert.Equal(t, "extra", blocks[1].Text)
}

func TestRequiredNames(t *testing.T) {
	assert.Equal(t, []string{"a"}, requiredNames([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, requiredNames([]any{"a", "b"}))
	assert.Nil(t, requiredNames(nil))
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "read_plan",
			Description: "Read the plan",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"start": map[string]any{"type": "integer"}},
				"required":   []string{"start"},
			},
		},
	}})
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "read_plan", tools[0].OfTool.Name)
	assert.Equal(t, []string{"start"}, tools[0].OfTool.InputSchema.Required)
}
