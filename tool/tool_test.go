package tool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/checker"
	"github.com/hupe1980/roundtable/code"
	"github.com/hupe1980/roundtable/core"
)

type echoArgs struct {
	Text  string `json:"text" description:"Text to echo"`
	Times *int   `json:"times,omitempty"`
}

func echoTool(opts ...TypedOption) *TypedTool[echoArgs] {
	return NewTyped("echo", "Echo text", func(_ context.Context, a echoArgs) (string, error) {
		out := a.Text
		if a.Times != nil {
			for i := 1; i < *a.Times; i++ {
				out += a.Text
			}
		}
		return out, nil
	}, opts...)
}

func TestID_Valid(t *testing.T) {
	for _, id := range IDs() {
		assert.True(t, id.Valid(), id)
	}
	assert.False(t, ID("delete_everything").Valid())
	assert.Len(t, IDs(), 8)
}

func TestTypedTool_Call(t *testing.T) {
	tl := echoTool()
	ctx := context.Background()

	out, err := tl.Call(ctx, []byte(`{"text":"ab","times":2}`))
	require.NoError(t, err)
	assert.Equal(t, "abab", out)

	assert.False(t, tl.Strict())
	assert.Equal(t, []string{"text"}, tl.Parameters()["required"])
}

func TestTypedTool_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		args string
		opts []TypedOption
	}{
		{"not json", `{"text":`, nil},
		{"array", `[1,2]`, nil},
		{"missing required", `{}`, nil},
		{"wrong type", `{"text":1}`, nil},
		{"strict unknown field", `{"text":"a","times":1,"x":true}`, []TypedOption{WithStrict()}},
		{"strict missing optional", `{"text":"a"}`, []TypedOption{WithStrict()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := echoTool(tt.opts...).Call(context.Background(), []byte(tt.args))
			var toolErr *ToolError
			require.ErrorAs(t, err, &toolErr)
			assert.Equal(t, CodeValidation, toolErr.Code)
			assert.Equal(t, "echo", toolErr.Tool)
		})
	}
}

func TestTypedTool_ExecutionError(t *testing.T) {
	tl := NewTyped("fail", "Always fails", func(context.Context, noArgs) (string, error) {
		return "", errors.New("disk full")
	})

	_, err := tl.Call(context.Background(), nil)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "Error: disk full", toolErr.Text())
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	plan := filepath.Join(t.TempDir(), "fix_plan.md")

	require.NoError(t, r.Register(ReadPlan, NewReadRangeTool(ReadPlan, plan, "Read the plan")))
	assert.ErrorContains(t, r.Register(ReadPlan, NewReadRangeTool(ReadPlan, plan, "again")), "duplicate")
	assert.ErrorContains(t, r.Register(ID("shell"), echoTool()), "unknown tool id")
	assert.ErrorContains(t, r.Register(AppendPlan, nil), "nil tool")
	assert.ErrorContains(t, r.Register(AppendPlan, echoTool()), "does not match")

	assert.Equal(t, []ID{ReadPlan}, r.IDs())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_DefinitionsKeepOrder(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry().
		MustRegister(ReadPlan, NewReadRangeTool(ReadPlan, filepath.Join(dir, "p.md"), "Read plan")).
		MustRegister(OverwriteArtifact, NewOverwriteTool(OverwriteArtifact, filepath.Join(dir, "a.lean"), "Overwrite")).
		MustRegister(AppendDiagnosis, NewAppendTool(AppendDiagnosis, filepath.Join(dir, "d.md"), "Append"))

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "read_plan", defs[0].Function.Name)
	assert.Equal(t, "overwrite_artifact", defs[1].Function.Name)
	assert.True(t, defs[1].Function.Strict)
	assert.Equal(t, "append_diagnosis", defs[2].Function.Name)
	assert.Equal(t, "function", defs[2].Type)
}

func TestRegistry_Dispatch(t *testing.T) {
	dir := t.TempDir()
	diag := filepath.Join(dir, "diagnosis.md")
	r := NewRegistry().
		MustRegister(AppendDiagnosis, NewAppendTool(AppendDiagnosis, diag, "Append")).
		MustRegister(ReadDiagnosis, NewReadRangeTool(ReadDiagnosis, diag, "Read"))
	ctx := context.Background()

	out, err := r.Dispatch(ctx, core.FunctionCall{ID: "1", Name: "append_diagnosis", Arguments: `{"content":"line 3 fails"}`})
	require.NoError(t, err)
	assert.Equal(t, "Wrote to "+diag+".", out)

	out, err = r.Dispatch(ctx, core.FunctionCall{ID: "2", Name: "read_diagnosis"})
	require.NoError(t, err)
	assert.Equal(t, "   1: line 3 fails", out)

	out, err = r.Dispatch(ctx, core.FunctionCall{ID: "3", Name: "read_diagnosis", Arguments: `{"start_line":5}`})
	require.NoError(t, err)
	assert.Equal(t, "(empty)", out)

	out, err = r.Dispatch(ctx, core.FunctionCall{ID: "4", Name: "overwrite_artifact", Arguments: `{"content":"x"}`})
	assert.Error(t, err)
	assert.Equal(t, `Error: unknown tool "overwrite_artifact"`, out)

	out, err = r.Dispatch(ctx, core.FunctionCall{ID: "5", Name: "append_diagnosis", Arguments: `{"content":5}`})
	assert.Error(t, err)
	assert.Contains(t, out, "Error: parameter validation failed")
}

func TestOverwriteTool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Copy00.lean")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	tl := NewOverwriteTool(OverwriteArtifact, path, "Overwrite the artifact")
	out, err := tl.Call(context.Background(), []byte(`{"new_content":"theorem t : True := trivial\n"}`))
	require.NoError(t, err)
	assert.Equal(t, "Overwrote "+path+".", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "theorem t : True := trivial\n", string(data))
}

func TestOverwriteTool_RejectsNullContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Copy00.lean")
	require.NoError(t, os.WriteFile(path, []byte("theorem x : True := trivial"), 0o644))

	r := NewRegistry().MustRegister(OverwriteArtifact, NewOverwriteTool(OverwriteArtifact, path, "Overwrite"))
	out, err := r.Dispatch(context.Background(), core.FunctionCall{ID: "1", Name: "overwrite_artifact", Arguments: `{"new_content":null}`})
	assert.Error(t, err)
	assert.Contains(t, out, "Error: parameter validation failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "theorem x : True := trivial", string(data))
}

func TestTypedTool_StrictNullablePointer(t *testing.T) {
	tl := echoTool(WithStrict())

	out, err := tl.Call(context.Background(), []byte(`{"text":"ab","times":null}`))
	require.NoError(t, err)
	assert.Equal(t, "ab", out)

	_, err = tl.Call(context.Background(), []byte(`{"text":null,"times":2}`))
	assert.Error(t, err)
}

type fakeRunner struct{ paths []string }

func (f *fakeRunner) RunFile(_ context.Context, path string) checker.Result {
	f.paths = append(f.paths, path)
	return checker.Result{Name: "Lean", ExitCode: 1, Stderr: "error: unsolved goals"}
}

func TestRunFileTool(t *testing.T) {
	runner := &fakeRunner{}
	tl := NewRunFileTool(runner, "Copy00.lean")
	assert.Equal(t, "run_checker", tl.Name())

	out, err := tl.Call(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "exit_code=1\nstdout:\n(empty)\nstderr:\nerror: unsolved goals", out)
	assert.Equal(t, []string{"Copy00.lean"}, runner.paths)
}

func TestRunSourceTool(t *testing.T) {
	var got string
	tl := NewRunSourceTool(code.ExecutorFunc(func(_ context.Context, src string) (string, error) {
		got = src
		return "exit_code=0", nil
	}))

	out, err := tl.Call(context.Background(), []byte(`{"code":"example : 1 = 1 := rfl"}`))
	require.NoError(t, err)
	assert.Equal(t, "exit_code=0", out)
	assert.Equal(t, "example : 1 = 1 := rfl", got)
}
