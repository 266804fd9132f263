package scenario

import (
	"path/filepath"

	"github.com/hupe1980/roundtable/config"
	"github.com/hupe1980/roundtable/pipeline"
	"github.com/hupe1980/roundtable/tool"
)

// RepairTasks returns the phase tasks for the given workspace.
func RepairTasks(ws config.WorkspaceConfig) (diagnose, plan, execute string) {
	artifact := filepath.Base(ws.Artifact)
	diag := filepath.Base(ws.Diagnosis)
	fix := filepath.Base(ws.Plan)

	diagnose = "Identify all failing parts of " + artifact + ", agree on a concise list of issues, and append them to " +
		diag + " with context (line ranges, error messages). Do not propose fixes here, just problems."
	plan = "Read " + diag + ", discuss each issue, and append a clear, step-by-step fix plan to " + fix +
		". Include which lines to change and the new Lean code to try. Avoid running tools and focus on planning."
	execute = "Execute the latest plan in " + fix + ". If Lean succeeds, state success. If it fails, append a brief " +
		"failure summary to " + diag + " so the next cycle can address it."
	return diagnose, plan, execute
}

func repairPersonas(ws config.WorkspaceConfig) (diagnosis, planning, execution []persona) {
	artifact := filepath.Base(ws.Artifact)
	diag := filepath.Base(ws.Diagnosis)
	fix := filepath.Base(ws.Plan)

	diagTools := []tool.ID{tool.ReadArtifact, tool.RunChecker, tool.AppendDiagnosis}
	planTools := []tool.ID{tool.ReadDiagnosis, tool.AppendPlan}
	execTools := []tool.ID{tool.ReadPlan, tool.OverwriteArtifact, tool.RunChecker, tool.AppendDiagnosis, tool.ReadArtifact}

	diagnosis = []persona{
		{
			name:        "diag_alpha",
			description: "Finds issues in the Lean file.",
			instruction: "You collaborate to identify problems in " + artifact + ". Read relevant sections and discuss " +
				"errors. Seek feedback from your partner and reach consensus on what is wrong. Record findings in " +
				diag + " using the provided append tool. Keep messages under 90 words.",
			tools: diagTools,
		},
		{
			name:        "diag_beta",
			description: "Finds issues in the Lean file.",
			instruction: "You collaborate to identify problems in " + artifact + ". Ask for your partner's view, " +
				"validate or refine it, and reach consensus. Log agreed issues in " + diag + " via the append " +
				"tool. Keep messages under 90 words.",
			tools: diagTools,
		},
	}
	planning = []persona{
		{
			name:        "plan_alpha",
			description: "Proposes fixes based on diagnosis.",
			instruction: "Read " + diag + ", discuss issues with your partner, and propose specific Lean fixes. Seek " +
				"feedback, agree on a concise plan with actionable steps and line references, and append the plan " +
				"to " + fix + ". Keep replies under 90 words.",
			tools: planTools,
		},
		{
			name:        "plan_beta",
			description: "Proposes fixes based on diagnosis.",
			instruction: "Collaborate on fixes using " + diag + ". Question assumptions, refine suggestions, and " +
				"ensure consensus before writing to " + fix + ". Keep replies under 90 words.",
			tools: planTools,
		},
	}
	execution = []persona{
		{
			name:        "executor",
			description: "Applies fixes and reports results.",
			instruction: "Read " + fix + ", summarize the agreed steps, and apply them to " + artifact + " using " +
				"overwrite_artifact if needed. Run `run_checker` afterward. If compilation fails, append a concise " +
				"failure note to " + diag + " with errors and suggested next focus. Keep replies under 100 words.",
			tools: execTools,
		},
	}
	return diagnosis, planning, execution
}

// repairRegistry binds every repair tool to the configured workspace.
func repairRegistry(ws config.WorkspaceConfig, runner tool.FileRunner) *tool.Registry {
	artifact := filepath.Base(ws.Artifact)
	diag := filepath.Base(ws.Diagnosis)
	fix := filepath.Base(ws.Plan)

	return tool.NewRegistry().
		MustRegister(tool.ReadArtifact, tool.NewReadRangeTool(tool.ReadArtifact, ws.Artifact,
			"Read a slice of "+artifact+" by start_line and line_count.")).
		MustRegister(tool.ReadDiagnosis, tool.NewReadRangeTool(tool.ReadDiagnosis, ws.Diagnosis,
			"Read "+diag+" for identified issues.")).
		MustRegister(tool.ReadPlan, tool.NewReadRangeTool(tool.ReadPlan, ws.Plan,
			"Read "+fix+" for proposed fixes.")).
		MustRegister(tool.AppendDiagnosis, tool.NewAppendTool(tool.AppendDiagnosis, ws.Diagnosis,
			"Append notes to "+diag+". Provide `content` (Markdown).")).
		MustRegister(tool.AppendPlan, tool.NewAppendTool(tool.AppendPlan, ws.Plan,
			"Append notes to "+fix+". Provide `content` (Markdown).")).
		MustRegister(tool.OverwriteArtifact, tool.NewOverwriteTool(tool.OverwriteArtifact, ws.Artifact,
			"Overwrite "+artifact+" with new content. Provide the full Lean source as `new_content`.")).
		MustRegister(tool.RunChecker, tool.NewRunFileTool(runner, ws.Artifact))
}

// Repair wires the three phase teams into a pipeline that verifies the
// artifact with the configured checker after every execute phase.
func Repair(env *Env, optFns ...func(o *pipeline.Options)) (*pipeline.Pipeline, error) {
	return RepairWithRunner(env, newChecker(env.Config.Checker, env.logger()), optFns...)
}

// RepairWithRunner is Repair with an explicit checker, used for both the
// run_checker tool and verification.
func RepairWithRunner(env *Env, runner tool.FileRunner, optFns ...func(o *pipeline.Options)) (*pipeline.Pipeline, error) {
	ws := env.Config.Workspace
	registry := repairRegistry(ws, runner)
	diagnosis, planning, execution := repairPersonas(ws)
	diagTask, planTask, execTask := RepairTasks(ws)
	sessions := env.Config.Sessions

	diagTeam, err := env.roundRobin(config.ScenarioRepair, "diagnose", diagnosis, registry, sessions.Diagnose, true)
	if err != nil {
		return nil, err
	}
	planTeam, err := env.roundRobin(config.ScenarioRepair, "plan", planning, registry, sessions.Plan, true)
	if err != nil {
		return nil, err
	}
	execTeam, err := env.roundRobin(config.ScenarioRepair, "execute", execution, registry, sessions.Execute, true)
	if err != nil {
		return nil, err
	}

	return pipeline.New(
		pipeline.Stage{Team: diagTeam, Task: diagTask},
		pipeline.Stage{Team: planTeam, Task: planTask},
		pipeline.Stage{Team: execTeam, Task: execTask},
		runner,
		ws.Artifact,
		func(o *pipeline.Options) {
			o.MaxCycles = env.Config.Repair.MaxCycles
			o.Logger = env.logger()
			for _, fn := range optFns {
				fn(o)
			}
		},
	)
}
