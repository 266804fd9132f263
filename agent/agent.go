package agent

import (
	"context"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
)

// Agent is a named participant that produces one chat message per turn.
type Agent interface {
	Name() string
	Description() string

	// Turn produces the agent's chat message for tc.Turn. Tool call and tool
	// result records may be appended to tc.Transcript before returning; the
	// returned message itself is appended by the caller.
	Turn(tc *TurnContext) (core.Message, error)
}

// TurnContext carries everything an agent needs for a single turn.
type TurnContext struct {
	Context    context.Context
	SessionID  string
	Turn       int
	Transcript *core.Transcript
	Logger     logging.Logger
	Observer   core.Observer
}

func (tc *TurnContext) ctx() context.Context {
	if tc.Context == nil {
		return context.Background()
	}
	return tc.Context
}

func (tc *TurnContext) logger() logging.Logger { return logging.OrNoOp(tc.Logger) }

func (tc *TurnContext) observer() core.Observer {
	if tc.Observer == nil {
		return core.NopObserver{}
	}
	return tc.Observer
}

// record appends msg to the transcript and notifies the observer.
func (tc *TurnContext) record(msg core.Message) (core.Message, error) {
	appended, err := tc.Transcript.Append(msg)
	if err != nil {
		return core.Message{}, err
	}
	tc.observer().OnMessage(appended)
	return appended, nil
}

// BaseAgent holds identity shared by agent implementations.
type BaseAgent struct {
	name        string
	description string
}

// NewBaseAgent constructs a BaseAgent with a generated description.
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{name: name, description: "Agent " + name}
}

// Name returns the agent name, which doubles as the sender of its messages.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a short description of the agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// FuncAgent is an Agent backed by a plain function returning the reply text.
type FuncAgent struct {
	BaseAgent
	fn func(tc *TurnContext) (string, error)
}

// NewFuncAgent creates a FuncAgent.
func NewFuncAgent(name string, fn func(tc *TurnContext) (string, error)) *FuncAgent {
	return &FuncAgent{BaseAgent: NewBaseAgent(name), fn: fn}
}

// Turn implements Agent.
func (a *FuncAgent) Turn(tc *TurnContext) (core.Message, error) {
	text, err := a.fn(tc)
	if err != nil {
		return core.Message{}, err
	}
	return core.NewTextMessage(a.name, tc.Turn, text), nil
}
