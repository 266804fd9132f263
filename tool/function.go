package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hupe1980/roundtable/internal/util"
)

// TypedTool adapts a strongly typed Go function into a Tool.
//
// The parameter schema is derived from A by reflection (see util.CreateSchema).
// Raw arguments are validated against the schema before they are decoded into
// A, so handlers only ever see well-formed input. Failures are normalized to
// *ToolError:
//
//	VALIDATION_ERROR -> malformed JSON or schema mismatch
//	EXECUTION_ERROR  -> the handler returned a plain error
//	(a *ToolError returned by the handler is passed through)
//
// A TypedTool has no mutable state after construction and is safe for
// concurrent use.
type TypedTool[A any] struct {
	name        string
	description string
	parameters  map[string]any
	strict      bool
	fn          func(ctx context.Context, args A) (string, error)
}

// TypedOption customizes a TypedTool.
type TypedOption func(*typedOptions)

type typedOptions struct {
	strict bool
}

// WithStrict marks the tool strict: every field is required and unknown
// fields are rejected.
func WithStrict() TypedOption {
	return func(o *typedOptions) { o.strict = true }
}

// NewTyped builds a tool from a typed handler.
//
// Example:
//
//	type noteArgs struct {
//	  Content string `json:"content" description:"Markdown to append"`
//	}
//
//	t := NewTyped("append_plan", "Append to the plan", func(ctx context.Context, a noteArgs) (string, error) {
//	  return workspace.AppendNote("fix_plan.md", a.Content), nil
//	})
func NewTyped[A any](name, description string, fn func(ctx context.Context, args A) (string, error), opts ...TypedOption) *TypedTool[A] {
	var o typedOptions
	for _, opt := range opts {
		opt(&o)
	}

	var zero A
	schema := util.CreateSchema(zero)
	if o.strict {
		schema = util.CreateStrictSchema(zero)
	}

	return &TypedTool[A]{
		name:        name,
		description: description,
		parameters:  schema,
		strict:      o.strict,
		fn:          fn,
	}
}

// Name implements Tool.
func (t *TypedTool[A]) Name() string { return t.name }

// Description implements Tool.
func (t *TypedTool[A]) Description() string { return t.description }

// Parameters implements Tool.
func (t *TypedTool[A]) Parameters() map[string]any { return t.parameters }

// Strict implements Tool.
func (t *TypedTool[A]) Strict() bool { return t.strict }

// Call validates and decodes args then invokes the handler.
func (t *TypedTool[A]) Call(ctx context.Context, args json.RawMessage) (string, error) {
	raw := bytes.TrimSpace(args)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return "", &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("arguments are not a JSON object: %v", err),
			Code:    CodeValidation,
		}
	}

	if err := util.ValidateParameters(params, t.parameters); err != nil {
		return "", &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	var decoded A
	dec := json.NewDecoder(bytes.NewReader(raw))
	if t.strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&decoded); err != nil {
		return "", &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter decoding failed: %v", err),
			Code:    CodeValidation,
		}
	}

	result, err := t.fn(ctx, decoded)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return "", toolErr
		}
		return "", &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
		}
	}

	return result, nil
}
