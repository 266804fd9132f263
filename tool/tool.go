// Package tool implements the function / tool calling subsystem that lets agents
// invoke a fixed set of local capabilities (file reads, notes, artifact
// rewrites, checker runs) with schema validated arguments and uniform error
// handling. Every failure a tool can hit is rendered as text for the model;
// tool problems never abort a session.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/roundtable/internal/util"
)

// ID enumerates the tools an agent may be granted.
type ID string

// Known tool identifiers.
const (
	ReadArtifact      ID = "read_artifact"
	ReadDiagnosis     ID = "read_diagnosis"
	ReadPlan          ID = "read_plan"
	AppendDiagnosis   ID = "append_diagnosis"
	AppendPlan        ID = "append_plan"
	OverwriteArtifact ID = "overwrite_artifact"
	RunChecker        ID = "run_checker"
	RunSource         ID = "run_source"
)

var knownIDs = []ID{
	ReadArtifact,
	ReadDiagnosis,
	ReadPlan,
	AppendDiagnosis,
	AppendPlan,
	OverwriteArtifact,
	RunChecker,
	RunSource,
}

// IDs returns every known tool identifier.
func IDs() []ID { return append([]ID(nil), knownIDs...) }

// Valid reports whether id is one of the known identifiers.
func (id ID) Valid() bool {
	for _, k := range knownIDs {
		if k == id {
			return true
		}
	}
	return false
}

func (id ID) String() string { return string(id) }

// Tool is a capability exposed to models through function calling.
type Tool interface {
	// Name returns the identifier used in function call declarations and routing.
	Name() string

	// Description is shown to the model to explain when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Strict reports whether the provider should enforce the schema exactly.
	Strict() bool

	// Call executes the tool with raw JSON arguments and returns its text output.
	Call(ctx context.Context, args json.RawMessage) (string, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes carried by ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "NOT_FOUND"
)

// ToolError represents errors that occur during tool dispatch or execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Text renders the error as the tool output handed back to the model.
func (e *ToolError) Text() string {
	return "Error: " + e.Message
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
