package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/roundtable/core"
)

type mockStep struct {
	content core.Content
	err     error
}

// MockModel is a lightweight in‑memory Model useful for tests & dry runs.
//
// Responses are chosen in this order: the next scripted step (Enqueue /
// EnqueueError), a canned reply keyed by the latest text input (AddResponse),
// or an echo of the latest text input. Every request is recorded.
type MockModel struct {
	info      Info
	responses map[string]string
	script    []mockStep
	requests  []Request
	latency   time.Duration
	mu        sync.Mutex
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      "mock",
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue appends scripted final contents returned by subsequent calls.
func (m *MockModel) Enqueue(contents ...core.Content) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range contents {
		m.script = append(m.script, mockStep{content: c})
	}
	return m
}

// EnqueueText appends scripted assistant text replies.
func (m *MockModel) EnqueueText(texts ...string) *MockModel {
	for _, t := range texts {
		m.Enqueue(core.NewTextContent(core.RoleAssistant, t))
	}
	return m
}

// EnqueueToolCall appends a scripted response requesting the given calls.
func (m *MockModel) EnqueueToolCall(calls ...core.FunctionCall) *MockModel {
	parts := make([]core.Part, 0, len(calls))
	for _, fc := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}
	return m.Enqueue(core.Content{Role: core.RoleAssistant, Parts: parts})
}

// EnqueueError makes a subsequent call fail with err.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockStep{err: err})
	return m
}

// SetLatency delays every response; the delay honours context cancellation.
func (m *MockModel) SetLatency(d time.Duration) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
	return m
}

// Requests returns a copy of every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockModel) next(req Request) (mockStep, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.script) > 0 {
		step := m.script[0]
		m.script = m.script[1:]
		return step, m.latency
	}
	var inputText string
	if n := len(req.Contents); n > 0 {
		inputText = req.Contents[n-1].Text()
	}
	full := m.responses[inputText]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", inputText)
	}
	return mockStep{content: core.NewTextContent(core.RoleAssistant, full)}, m.latency
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		step, latency := m.next(req)
		if latency > 0 {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case <-time.After(latency):
			}
		}
		if step.err != nil {
			errCh <- step.err
			return
		}

		if req.Stream {
			for _, r := range step.content.Text() {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.NewTextContent(core.RoleAssistant, string(r)),
				}:
				}
			}
		}

		finish := "stop"
		if len(step.content.FunctionCalls()) > 0 {
			finish = "tool_calls"
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Content: step.content, FinishReason: finish}:
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
