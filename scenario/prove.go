package scenario

import (
	"github.com/hupe1980/roundtable/config"
	"github.com/hupe1980/roundtable/tool"
)

// ProveTask asks the pair to prove a small lemma by running Lean source.
const ProveTask = "Have a short conversation while proving a simple Lean lemma (e.g., `2 + 3 = 3 + 2`) " +
	"or evaluating `#eval`. Talk through each step, avoid quoting high-level tactics, run `run_source` " +
	"as needed, and only wrap up after at least one reflection round on why the proof worked."

var provePersonas = []persona{
	{
		name:        "planner",
		description: "Hypothesizes Lean proof strategies.",
		instruction: "You are the theorist. Keep the conversation flowing: greet the executor, describe the next " +
			"proof idea in plain English (no Lean code), and react to their feedback. Avoid shortcuts like " +
			"`simp`, `ring`, or quoting existing lemmas. Outline how to reconstruct the proof from first " +
			"principles. Keep replies under 60 words and do not call `run_source`.",
	},
	{
		name:        "executor",
		description: "Implements the planner suggestions and runs Lean.",
		instruction: "You are the implementer. Rephrase the planner's idea, produce Lean code that follows their " +
			"guidance without relying on `simp`/`ring`/out-of-the-box lemmas, call `run_source`, and summarize " +
			"the output. Keep 2-3 sentences under 80 words, translate errors into plain language, and always " +
			"ask the planner what to try next.",
		tools: []tool.ID{tool.RunSource},
	},
}

// ProverPair lets a theorist and an implementer prove a lemma together. Only
// the implementer may run the prover, on a scratch file.
func ProverPair(env *Env) (*Conversation, error) {
	prover := newChecker(env.Config.Prover, env.logger())
	registry := tool.NewRegistry().MustRegister(tool.RunSource, tool.NewRunSourceTool(prover))

	rr, err := env.roundRobin(config.ScenarioProve, "prove", provePersonas, registry,
		env.Config.Sessions.Prove, true)
	if err != nil {
		return nil, err
	}
	return &Conversation{Team: rr, Task: ProveTask}, nil
}
