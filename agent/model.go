package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
	"github.com/hupe1980/roundtable/model"
	"github.com/hupe1980/roundtable/tool"
)

// DefaultMaxToolIterations bounds the model/tool round trips within one turn.
const DefaultMaxToolIterations = 8

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Instruction Instruction
	Description string
	Streaming   bool
	Tools       *tool.Registry
	// ModelTimeout bounds every single model call; zero disables the bound.
	ModelTimeout      time.Duration
	MaxToolIterations int
	// MaxHistoryMessages limits the transcript entries sent to the model; zero keeps all.
	MaxHistoryMessages int
}

// ModelAgent binds a persona (instruction and tools) to a language model.
//
// A turn is: build a request from the persona and the transcript, call the
// model, execute any requested tools synchronously while recording a
// tool_call and a tool_result entry in the transcript, resume the model, and
// finally return the model's text as the turn's single chat message.
type ModelAgent struct {
	BaseAgent
	llm         model.Model
	instruction Instruction
	tools       *tool.Registry
	processors  []RequestProcessor
	opts        ModelAgentOptions
}

// NewModelAgent creates a new model-based agent.
//
// Defaults: instruction "You are <name>, a helpful AI assistant.", no tools,
// no streaming, no model timeout, DefaultMaxToolIterations.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:       NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		MaxToolIterations: DefaultMaxToolIterations,
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxToolIterations <= 0 {
		opts.MaxToolIterations = DefaultMaxToolIterations
	}

	a := &ModelAgent{
		BaseAgent:   NewBaseAgent(name),
		llm:         llm,
		instruction: opts.Instruction,
		tools:       opts.Tools,
		processors:  []RequestProcessor{instructionsProcessor{}, contentsProcessor{}, toolsProcessor{}},
		opts:        opts,
	}
	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}
	return a
}

// Model returns the agent's model client.
func (a *ModelAgent) Model() model.Model { return a.llm }

// Tools returns the agent's tool registry, nil when it has none.
func (a *ModelAgent) Tools() *tool.Registry { return a.tools }

// Turn implements Agent.
func (a *ModelAgent) Turn(tc *TurnContext) (core.Message, error) {
	logger := tc.logger()
	start := time.Now()
	logger.Debug("agent.turn.start", "agent", a.Name(), "session_id", tc.SessionID, "turn", tc.Turn)

	var lastResults []core.FunctionResponse
	for round := 0; ; round++ {
		req, err := a.buildRequest(tc)
		if err != nil {
			return core.Message{}, err
		}

		resp, err := a.generate(tc, req)
		if err != nil {
			logger.Error("agent.model.error", "agent", a.Name(), "turn", tc.Turn, "error", err.Error())
			return core.Message{}, err
		}

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			logger.Debug("agent.turn.complete",
				"agent", a.Name(),
				"turn", tc.Turn,
				"tool_rounds", round,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return core.NewTextMessage(a.Name(), tc.Turn, resp.Content.Text()), nil
		}

		if round >= a.opts.MaxToolIterations {
			logger.Warn("agent.tool.iterations_exhausted", "agent", a.Name(), "turn", tc.Turn, "max", a.opts.MaxToolIterations)
			return core.NewTextMessage(a.Name(), tc.Turn, summarizeResults(lastResults)), nil
		}

		lastResults, err = a.executeTools(tc, resp.Content.Text(), calls)
		if err != nil {
			return core.Message{}, err
		}
	}
}

func (a *ModelAgent) buildRequest(tc *TurnContext) (model.Request, error) {
	var req model.Request
	for _, p := range a.processors {
		if err := p.ProcessRequest(tc, &req, a); err != nil {
			return model.Request{}, fmt.Errorf("agent %s: %s processor: %w", a.Name(), p.Name(), err)
		}
	}
	return req, nil
}

// generate performs one model call bounded by ModelTimeout.
func (a *ModelAgent) generate(tc *TurnContext, req model.Request) (model.Response, error) {
	parent := tc.ctx()
	ctx := parent
	if a.opts.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, a.opts.ModelTimeout)
		defer cancel()
	}

	var onPartial func(string)
	if req.Stream {
		obs := tc.observer()
		onPartial = func(text string) { obs.OnChunk(tc.SessionID, a.Name(), text) }
	}

	start := time.Now()
	resp, err := model.Collect(ctx, a.llm, req, onPartial)
	info := a.llm.Info()
	if err != nil {
		if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", core.ErrModelTimeout, a.opts.ModelTimeout, err)
		}
		if sl, ok := tc.Logger.(*logging.SessionLogger); ok {
			sl.LogModelCall(info.Name, 0, time.Since(start), err)
		}
		return model.Response{}, &core.ModelError{Agent: a.Name(), Model: info.Name, Err: err}
	}

	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	if sl, ok := tc.Logger.(*logging.SessionLogger); ok {
		sl.LogModelCall(info.Name, tokens, time.Since(start), nil)
	} else {
		tc.logger().Debug("agent.model.call",
			"agent", a.Name(),
			"model", info.Name,
			"finish_reason", resp.FinishReason,
			"tokens", tokens,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return resp, nil
}

// executeTools runs calls sequentially, recording the request and the
// results in the transcript.
func (a *ModelAgent) executeTools(tc *TurnContext, text string, calls []core.FunctionCall) ([]core.FunctionResponse, error) {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = core.NewID()
		}
	}
	if _, err := tc.record(core.NewToolCallMessage(a.Name(), tc.Turn, text, calls)); err != nil {
		return nil, err
	}

	registry := a.tools
	if registry == nil {
		registry = tool.NewRegistry()
	}

	results := make([]core.FunctionResponse, 0, len(calls))
	for _, fc := range calls {
		start := time.Now()
		out, err := dispatch(tc.ctx(), registry, fc)
		if sl, ok := tc.Logger.(*logging.SessionLogger); ok {
			sl.LogToolCall(fc.Name, time.Since(start), err)
		} else {
			tc.logger().Info("agent.tool.executed",
				"agent", a.Name(),
				"tool", fc.Name,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err != nil,
			)
		}
		results = append(results, core.FunctionResponse{ID: fc.ID, Name: fc.Name, Response: out})
	}

	if _, err := tc.record(core.NewToolResultMessage(a.Name(), tc.Turn, results)); err != nil {
		return nil, err
	}
	return results, nil
}

// dispatch calls the registry, converting a panicking tool into an error text.
func dispatch(ctx context.Context, registry *tool.Registry, fc core.FunctionCall) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", fc.Name, r)
			out = "Error: " + err.Error()
		}
	}()
	return registry.Dispatch(ctx, fc)
}

func summarizeResults(results []core.FunctionResponse) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Response)
	}
	return strings.Join(parts, "\n")
}
