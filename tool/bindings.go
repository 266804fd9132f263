package tool

import (
	"context"

	"github.com/hupe1980/roundtable/checker"
	"github.com/hupe1980/roundtable/code"
	"github.com/hupe1980/roundtable/workspace"
)

// ReadRangeArgs are the arguments of the read tools. Omitted values fall
// back to workspace.DefaultStart and workspace.DefaultCount.
type ReadRangeArgs struct {
	StartLine *int `json:"start_line,omitempty" description:"1-indexed first line to read (default 1)"`
	LineCount *int `json:"line_count,omitempty" description:"Number of lines to read (default 80)"`
}

// ContentArgs carry Markdown to append.
type ContentArgs struct {
	Content string `json:"content" description:"Markdown to append"`
}

// OverwriteArgs carry the complete replacement file contents.
type OverwriteArgs struct {
	NewContent string `json:"new_content" description:"Full new file contents"`
}

// SourceArgs carry a source snippet to check.
type SourceArgs struct {
	Code string `json:"code" description:"Complete source to compile"`
}

type noArgs struct{}

// FileRunner checks a file on disk. Implemented by *checker.Checker.
type FileRunner interface {
	RunFile(ctx context.Context, path string) checker.Result
}

// NewReadRangeTool exposes workspace.ReadRange bound to path.
func NewReadRangeTool(id ID, path, description string) Tool {
	return NewTyped(string(id), description, func(_ context.Context, a ReadRangeArgs) (string, error) {
		start, count := workspace.DefaultStart, workspace.DefaultCount
		if a.StartLine != nil {
			start = *a.StartLine
		}
		if a.LineCount != nil {
			count = *a.LineCount
		}
		return workspace.ReadRange(path, start, count), nil
	})
}

// NewAppendTool exposes workspace.AppendNote bound to path.
func NewAppendTool(id ID, path, description string) Tool {
	return NewTyped(string(id), description, func(_ context.Context, a ContentArgs) (string, error) {
		return workspace.AppendNote(path, a.Content), nil
	})
}

// NewOverwriteTool exposes workspace.Overwrite bound to path. The tool is strict.
func NewOverwriteTool(id ID, path, description string) Tool {
	return NewTyped(string(id), description, func(_ context.Context, a OverwriteArgs) (string, error) {
		return workspace.Overwrite(path, a.NewContent), nil
	}, WithStrict())
}

// NewRunFileTool exposes a checker run over the file at path.
func NewRunFileTool(runner FileRunner, path string) Tool {
	return NewTyped(string(RunChecker),
		"Run the checker on "+path+" and return its exit code, stdout and stderr.",
		func(ctx context.Context, _ noArgs) (string, error) {
			return runner.RunFile(ctx, path).String(), nil
		})
}

// NewRunSourceTool exposes an executor over a scratch source snippet.
func NewRunSourceTool(exec code.Executor) Tool {
	return NewTyped(string(RunSource),
		"Compile and run a source snippet. Provide the source as `code`. "+
			"The tool returns compiler stdout/stderr so you can inspect the results.",
		func(ctx context.Context, a SourceArgs) (string, error) {
			return exec.Execute(ctx, a.Code)
		})
}
