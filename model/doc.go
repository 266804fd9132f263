// Package model defines the provider‑agnostic abstractions for interacting
// with chat-completion models.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, core.FunctionCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (openai, anthropic) implement the Model interface from this
// package so agents and schedulers remain decoupled from vendor SDKs.
package model
