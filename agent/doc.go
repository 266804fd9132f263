// Package agent contains the participants of a roundtable session.
//
// An Agent takes exactly one turn at a time: it reads the shared transcript,
// produces at most a handful of tool call / tool result records, and returns
// a single chat message. Scheduling, termination and transcript ownership
// live in the team package; this package only knows how to take a turn.
//
// Two implementations are provided:
//   - ModelAgent binds a persona (instruction + optional tools) to a model.Model
//   - FuncAgent wraps a Go function, useful for tests and scripted personas
package agent
