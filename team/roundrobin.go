package team

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/roundtable/agent"
	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
)

// StopMaxTurns is the stop reason reported when the turn cap ends a session.
const StopMaxTurns = "Maximum number of turns reached"

// ErrAlreadyRunning is returned when Run is called on a team that is running.
var ErrAlreadyRunning = errors.New("team is already running")

// State is the lifecycle state of a RoundRobin.
type State int

// Lifecycle states. A team is running from construction until a session ends.
const (
	StateRunning State = iota
	StateTerminated
)

func (s State) String() string {
	if s == StateTerminated {
		return "terminated"
	}
	return "running"
}

// Options configure a RoundRobin.
type Options struct {
	Termination Termination
	// MaxTurns caps agent turns regardless of the termination; zero disables the cap.
	MaxTurns int
	Logger   logging.Logger
	Observer core.Observer
}

// Option customizes Options.
type Option func(*Options)

// WithTermination sets the termination condition.
func WithTermination(t Termination) Option {
	return func(o *Options) { o.Termination = t }
}

// WithMaxTurns sets the hard cap on agent turns.
func WithMaxTurns(n int) Option {
	return func(o *Options) { o.MaxTurns = n }
}

// WithLogger sets the logger used for scheduling events.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithObserver sets the observer notified about every appended message and
// streamed chunk.
func WithObserver(obs core.Observer) Option {
	return func(o *Options) { o.Observer = obs }
}

// Result is the outcome of a session.
type Result struct {
	SessionID  string
	Messages   []core.Message
	StopReason string
	// Turns is the number of completed agent turns.
	Turns    int
	Duration time.Duration
}

// LastChatText returns the text of the final chat message.
func (r *Result) LastChatText() (string, error) {
	return core.LastChatText(r.Messages)
}

// RoundRobin cycles agents in declaration order over one transcript.
type RoundRobin struct {
	name   string
	agents []agent.Agent
	opts   Options

	mu     sync.Mutex
	state  State
	active bool
}

// NewRoundRobin validates the participant list and builds the team.
func NewRoundRobin(name string, agents []agent.Agent, opts ...Option) (*RoundRobin, error) {
	if len(agents) == 0 {
		return nil, core.ErrNoAgents
	}

	seen := make(map[string]struct{}, len(agents))
	for i, a := range agents {
		if a == nil {
			return nil, &core.ConfigError{Field: "agents", Reason: fmt.Sprintf("agent %d is nil", i)}
		}
		if _, dup := seen[a.Name()]; dup {
			return nil, &core.ConfigError{Field: "agents", Reason: fmt.Sprintf("duplicate agent name %q", a.Name())}
		}
		if a.Name() == core.TaskSender {
			return nil, &core.ConfigError{Field: "agents", Reason: fmt.Sprintf("agent name %q is reserved for the task", a.Name())}
		}
		seen[a.Name()] = struct{}{}
	}

	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxTurns < 0 {
		return nil, &core.ConfigError{Field: "max_turns", Reason: "must not be negative"}
	}
	if o.Termination == nil && o.MaxTurns == 0 {
		return nil, &core.ConfigError{Field: "termination", Reason: "a termination condition or a turn cap is required"}
	}
	o.Logger = logging.OrNoOp(o.Logger)
	if o.Observer == nil {
		o.Observer = core.NopObserver{}
	}

	return &RoundRobin{
		name:   name,
		agents: append([]agent.Agent(nil), agents...),
		opts:   o,
		state:  StateRunning,
	}, nil
}

// Name returns the team name.
func (t *RoundRobin) Name() string { return t.name }

// Agents returns the participants in turn order.
func (t *RoundRobin) Agents() []agent.Agent { return append([]agent.Agent(nil), t.agents...) }

// State returns the lifecycle state.
func (t *RoundRobin) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Run records task as the opening message and cycles the agents until the
// termination fires or MaxTurns turns were taken. On agent failure the
// partial result is returned together with the error.
func (t *RoundRobin) Run(ctx context.Context, task string) (*Result, error) {
	t.mu.Lock()
	if t.active {
		t.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	t.active = true
	t.state = StateRunning
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.active = false
		t.state = StateTerminated
		t.mu.Unlock()
	}()

	if t.opts.Termination != nil {
		t.opts.Termination.Reset()
	}

	start := time.Now()
	sessionID := core.NewID()
	tr := core.NewTranscript(sessionID)
	logger := t.opts.Logger
	if sl, ok := logger.(*logging.SessionLogger); ok {
		logger = sl.WithSession(sessionID)
	}

	res := &Result{SessionID: sessionID}
	finish := func(reason string, err error) (*Result, error) {
		res.Messages = tr.Messages()
		res.StopReason = reason
		res.Duration = time.Since(start)
		if sl, ok := logger.(*logging.SessionLogger); ok {
			sl.LogSession(t.name, tr.ChatCount(), res.Turns, reason, res.Duration, err)
		} else {
			logger.Info("team.session.stop", "team", t.name, "reason", reason, "turns", res.Turns)
		}
		return res, err
	}

	taskMsg, err := tr.Append(core.NewTextMessage(core.TaskSender, 0, task))
	if err != nil {
		return finish("", err)
	}
	t.opts.Observer.OnMessage(taskMsg)
	if stop, reason := t.check([]core.Message{taskMsg}); stop {
		return finish(reason, nil)
	}

	for turn := 1; ; turn++ {
		if t.opts.MaxTurns > 0 && turn > t.opts.MaxTurns {
			return finish(StopMaxTurns, nil)
		}
		if err := ctx.Err(); err != nil {
			return finish("", err)
		}

		a := t.agents[(turn-1)%len(t.agents)]
		before := tr.Len()
		logger.Debug("team.turn.start", "team", t.name, "agent", a.Name(), "turn", turn)

		msg, err := a.Turn(&agent.TurnContext{
			Context:    ctx,
			SessionID:  sessionID,
			Turn:       turn,
			Transcript: tr,
			Logger:     logger,
			Observer:   t.opts.Observer,
		})
		if err != nil {
			logger.Error("team.turn.error", "team", t.name, "agent", a.Name(), "turn", turn, "error", err.Error())
			return finish("", fmt.Errorf("turn %d (%s): %w", turn, a.Name(), err))
		}
		if !msg.IsChat() {
			return finish("", fmt.Errorf("turn %d (%s): agent returned a %s record instead of a chat message", turn, a.Name(), msg.Kind))
		}

		msg.Sender = a.Name()
		msg.Turn = turn
		appended, err := tr.Append(msg)
		if err != nil {
			return finish("", fmt.Errorf("turn %d (%s): %w", turn, a.Name(), err))
		}
		res.Turns = turn
		t.opts.Observer.OnMessage(appended)
		logger.Debug("team.turn.complete", "team", t.name, "agent", a.Name(), "turn", turn, "chars", len(appended.Text()))

		if stop, reason := t.check(tr.Since(before)); stop {
			return finish(reason, nil)
		}
	}
}

func (t *RoundRobin) check(delta []core.Message) (bool, string) {
	if t.opts.Termination == nil {
		return false, ""
	}
	return t.opts.Termination.Check(delta)
}
