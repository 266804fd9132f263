package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
	"github.com/hupe1980/roundtable/model"
)

// Registry maps enumerated tool IDs to implementations. It is the unit of
// tool grant: an agent can call exactly the tools of its registry.
type Registry struct {
	mu     sync.RWMutex
	tools  map[ID]Tool
	order  []ID
	logger logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[ID]Tool), logger: logging.NoOpLogger{}}
}

// SetLogger sets the logger used by Dispatch.
func (r *Registry) SetLogger(l logging.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logging.OrNoOp(l)
}

// Register adds t under id. The tool's name must equal the id.
func (r *Registry) Register(id ID, t Tool) error {
	if !id.Valid() {
		return fmt.Errorf("tool: unknown tool id %q", id)
	}
	if t == nil {
		return fmt.Errorf("tool: nil tool for id %q", id)
	}
	if t.Name() != string(id) {
		return fmt.Errorf("tool: tool name %q does not match id %q", t.Name(), id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[id]; exists {
		return fmt.Errorf("tool: duplicate tool id %q", id)
	}
	r.tools[id] = t
	r.order = append(r.order, id)
	return nil
}

// MustRegister is Register that panics on error. Intended for static wiring.
func (r *Registry) MustRegister(id ID, t Tool) *Registry {
	if err := r.Register(id, t); err != nil {
		panic(err)
	}
	return r
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[ID(name)]
	return t, ok
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ID(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Definitions returns the model-facing declarations in registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, id := range r.order {
		t := r.tools[id]
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
				Strict:      t.Strict(),
			},
		})
	}
	return defs
}

// Dispatch executes call and returns the text to hand back to the model.
// The returned error is informational (for logging); its text form is
// already contained in the result.
func (r *Registry) Dispatch(ctx context.Context, call core.FunctionCall) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[ID(call.Name)]
	logger := r.logger
	r.mu.RUnlock()

	if !ok {
		toolErr := NewToolError(call.Name, fmt.Sprintf("unknown tool %q", call.Name), CodeNotFound)
		logger.Warn("tool.call.unknown", "tool", call.Name, "fc_id", call.ID)
		return toolErr.Text(), toolErr
	}

	start := time.Now()
	logger.Debug("tool.call.start", "tool", call.Name, "fc_id", call.ID)

	result, err := t.Call(ctx, json.RawMessage(call.Arguments))
	if err != nil {
		var toolErr *ToolError
		if !errors.As(err, &toolErr) {
			toolErr = NewToolError(call.Name, err.Error(), CodeExecution)
		}
		logger.Warn("tool.call.error", "tool", call.Name, "code", toolErr.Code, "error", toolErr.Message)
		return toolErr.Text(), toolErr
	}

	logger.Info("tool.call.success", "tool", call.Name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
