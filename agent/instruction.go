package agent

import "github.com/hupe1980/roundtable/internal/util"

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(*TurnContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(*TurnContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(tc *TurnContext) (string, error) { return f(tc) }

// Instruction represents either a static instruction string, a text/template
// rendered against fixed data, or a dynamic provider.
type Instruction struct {
	text     string
	data     any
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromTemplate creates an Instruction rendered from a
// text/template with data, e.g. "Edit {{.Artifact}} only."
func NewInstructionFromTemplate(text string, data any) Instruction {
	return Instruction{text: text, data: data}
}

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*TurnContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(tc *TurnContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(tc)
	}
	if i.data != nil {
		return util.RenderTemplate(i.text, i.data)
	}
	return i.text, nil
}
