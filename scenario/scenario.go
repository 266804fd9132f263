// Package scenario assembles the built-in conversations (small talk, a
// three-voice panel, a prover pair and the diagnose/plan/execute repair
// loop) from configuration.
package scenario

import (
	"context"
	"fmt"

	"github.com/hupe1980/roundtable/agent"
	"github.com/hupe1980/roundtable/checker"
	"github.com/hupe1980/roundtable/config"
	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
	"github.com/hupe1980/roundtable/model"
	"github.com/hupe1980/roundtable/model/provider"
	"github.com/hupe1980/roundtable/team"
	"github.com/hupe1980/roundtable/tool"
)

// Env carries what every scenario is built from.
type Env struct {
	Config   *config.Config
	Logger   logging.Logger
	Observer core.Observer
	// NewModel builds a client from a spec. Defaults to provider.New.
	NewModel func(spec provider.Spec) (model.Model, error)
}

func (e *Env) logger() logging.Logger { return logging.OrNoOp(e.Logger) }

func (e *Env) observer() core.Observer {
	if e.Observer == nil {
		return core.NopObserver{}
	}
	return e.Observer
}

func (e *Env) model(scenario, name string) (model.Model, error) {
	newModel := e.NewModel
	if newModel == nil {
		newModel = provider.New
	}
	m, err := newModel(e.Config.Agent(scenario, name))
	if err != nil {
		return nil, fmt.Errorf("model for %s/%s: %w", scenario, name, err)
	}
	return m, nil
}

// persona describes one model-backed agent.
type persona struct {
	name        string
	description string
	instruction string
	tools       []tool.ID
}

func (e *Env) agent(scenario string, p persona, registry *tool.Registry, streaming bool) (agent.Agent, error) {
	llm, err := e.model(scenario, p.name)
	if err != nil {
		return nil, err
	}

	var tools *tool.Registry
	if len(p.tools) > 0 {
		tools = tool.NewRegistry()
		tools.SetLogger(e.logger())
		for _, id := range p.tools {
			t, ok := registry.Get(string(id))
			if !ok {
				return nil, &core.ConfigError{Field: p.name, Reason: fmt.Sprintf("tool %s is not available", id)}
			}
			if err := tools.Register(id, t); err != nil {
				return nil, err
			}
		}
	}

	return agent.NewModelAgent(p.name, llm, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(p.instruction)
		o.Description = p.description
		o.Streaming = streaming
		o.Tools = tools
		o.ModelTimeout = e.Config.ModelTimeout
	}), nil
}

func (e *Env) roundRobin(scenario, name string, personas []persona, registry *tool.Registry, limits config.Limits, streaming bool) (*team.RoundRobin, error) {
	agents := make([]agent.Agent, 0, len(personas))
	for _, p := range personas {
		a, err := e.agent(scenario, p, registry, streaming)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}

	opts := []team.Option{
		team.WithMaxTurns(limits.MaxTurns),
		team.WithLogger(e.logger()),
		team.WithObserver(e.observer()),
	}
	if limits.MaxMessages > 0 {
		opts = append(opts, team.WithTermination(team.MaxMessages(limits.MaxMessages)))
	}
	return team.NewRoundRobin(name, agents, opts...)
}

func newChecker(cfg config.CheckerConfig, logger logging.Logger) *checker.Checker {
	return &checker.Checker{
		Name:           cfg.Name,
		Command:        cfg.Command,
		Args:           cfg.Args,
		Dir:            cfg.Dir,
		ProjectMarkers: cfg.ProjectMarkers,
		Timeout:        cfg.Timeout,
		WaitDelay:      cfg.WaitDelay,
		ScratchFile:    cfg.ScratchFile,
		Logger:         logger,
	}
}

// Conversation is a round-robin session bound to its task.
type Conversation struct {
	Team *team.RoundRobin
	Task string
}

// Run starts the session.
func (c *Conversation) Run(ctx context.Context) (*team.Result, error) {
	return c.Team.Run(ctx, c.Task)
}
