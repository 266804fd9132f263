// Package logging provides a minimal logging interface and adapters for roundtable.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that schedulers, agents and tools use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - SessionLogger with component / session scoping and domain helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.New(&logging.Config{Level: logging.LogLevelInfo, Format: "text", Output: os.Stderr})
//	team, err := team.NewRoundRobin("bench", agents, func(o *team.Options) { o.Logger = logger })
package logging
