package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAgents is returned when a scheduler is constructed without agents.
	ErrNoAgents = errors.New("at least one agent is required")
	// ErrNoChatMessage is returned when the latest chat message is requested
	// from a history that has none.
	ErrNoChatMessage = errors.New("transcript does not contain any chat messages")
	// ErrTurnOrder is returned when an append would break transcript ordering.
	ErrTurnOrder = errors.New("message breaks transcript turn order")
	// ErrModelTimeout marks a model call that exceeded its deadline.
	ErrModelTimeout = errors.New("model call timed out")
)

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// ModelError wraps a failure of the model client during an agent turn.
type ModelError struct {
	Agent string
	Model string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("agent %s: model %s: %v", e.Agent, e.Model, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline on the model call.
func (e *ModelError) Timeout() bool { return errors.Is(e.Err, ErrModelTimeout) }
