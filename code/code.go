// Package code defines the boundary for executing source snippets produced by
// agents, such as scratch proofs handed to a prover.
package code

import "context"

// Executor runs a source snippet and renders its outcome as text.
type Executor interface {
	// Execute runs source and returns a human readable report. Errors are
	// reserved for failures of the executor itself; a snippet that fails to
	// check is reported in the text.
	Execute(ctx context.Context, source string) (string, error)
}

// ExecutorFunc adapts an ordinary function to the Executor interface.
type ExecutorFunc func(ctx context.Context, source string) (string, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, source string) (string, error) {
	return f(ctx, source)
}
