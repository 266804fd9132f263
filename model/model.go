package model

import (
	"context"
	"errors"

	"github.com/hupe1980/roundtable/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Strict      bool           `json:"strict,omitempty"`
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
//
// Generate emits zero or more partial responses followed by exactly one final
// response on the first channel, or a single error on the second. Both
// channels are closed when generation ends.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoFinalResponse is returned by Collect when the stream ended without a final response.
var ErrNoFinalResponse = errors.New("model returned no final response")

// Collect drains a Generate call, forwarding partial text to onPartial (may
// be nil), and returns the final response.
func Collect(ctx context.Context, m Model, req Request, onPartial func(text string)) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final Response
		seen  bool
	)
	for resp := range respCh {
		if resp.Partial {
			if onPartial != nil {
				if text := resp.Content.Text(); text != "" {
					onPartial(text)
				}
			}
			continue
		}
		final = resp
		seen = true
	}

	if err := <-errCh; err != nil {
		return Response{}, err
	}
	if !seen {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		return Response{}, ErrNoFinalResponse
	}
	return final, nil
}
