// Package pipeline runs the diagnose → plan → execute repair loop: three
// round-robin sessions run strictly one after another, followed by a checker
// verification of the artifact that either ends the loop or starts another
// diagnosis cycle.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/roundtable/checker"
	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
	"github.com/hupe1980/roundtable/team"
)

// Phase is a state of the pipeline.
type Phase string

// Pipeline states.
const (
	PhaseDiagnose Phase = "diagnose"
	PhasePlan     Phase = "plan"
	PhaseExecute  Phase = "execute"
	PhaseVerify   Phase = "verify"
	PhaseDone     Phase = "done"
)

// DefaultMaxCycles runs a single linear pass.
const DefaultMaxCycles = 1

// Runner runs one session. Implemented by *team.RoundRobin.
type Runner interface {
	Run(ctx context.Context, task string) (*team.Result, error)
}

// Verifier checks the artifact. Implemented by *checker.Checker.
type Verifier interface {
	RunFile(ctx context.Context, path string) checker.Result
}

// Stage binds a team to the task it is given.
type Stage struct {
	Team Runner
	Task string
}

// Options configure a Pipeline.
type Options struct {
	MaxCycles int
	Logger    logging.Logger
	// OnPhase is called when a phase starts.
	OnPhase func(phase Phase, cycle int)
}

// PhaseResult is the session result of one phase in one cycle.
type PhaseResult struct {
	Phase  Phase
	Cycle  int
	Result *team.Result
}

// Report summarizes a pipeline run.
type Report struct {
	Cycles    int
	Phases    []PhaseResult
	Converged bool
	// Final is the last verification result; zero when no verification ran.
	Final    checker.Result
	Verified bool
	Duration time.Duration
}

// Pipeline is the explicit Diagnose → Plan → Execute → Verify state machine.
type Pipeline struct {
	stages   map[Phase]Stage
	verifier Verifier
	artifact string
	opts     Options
}

// New validates the stages and builds a pipeline. verifier may be nil, in
// which case the pipeline ends after the first execute phase.
func New(diagnose, plan, execute Stage, verifier Verifier, artifact string, optFns ...func(o *Options)) (*Pipeline, error) {
	stages := map[Phase]Stage{
		PhaseDiagnose: diagnose,
		PhasePlan:     plan,
		PhaseExecute:  execute,
	}
	for phase, s := range stages {
		if s.Team == nil {
			return nil, &core.ConfigError{Field: string(phase), Reason: "team is required"}
		}
	}
	if verifier != nil && artifact == "" {
		return nil, &core.ConfigError{Field: "artifact", Reason: "artifact path is required for verification"}
	}

	opts := Options{MaxCycles: DefaultMaxCycles}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxCycles < 1 {
		return nil, &core.ConfigError{Field: "max_cycles", Reason: "must be at least 1"}
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Pipeline{stages: stages, verifier: verifier, artifact: artifact, opts: opts}, nil
}

// Run drives the state machine until the artifact verifies, the cycle budget
// is used up, or a session fails. The partial report is returned with errors.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{}
	logger := p.opts.Logger

	phase, cycle := PhaseDiagnose, 1
	for phase != PhaseDone {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		report.Cycles = cycle
		if p.opts.OnPhase != nil {
			p.opts.OnPhase(phase, cycle)
		}
		logger.Info("pipeline.phase.start", "phase", string(phase), "cycle", cycle)

		switch phase {
		case PhaseDiagnose, PhasePlan, PhaseExecute:
			stage := p.stages[phase]
			res, err := stage.Team.Run(ctx, stage.Task)
			report.Phases = append(report.Phases, PhaseResult{Phase: phase, Cycle: cycle, Result: res})
			if err != nil {
				report.Duration = time.Since(start)
				return report, fmt.Errorf("%s phase (cycle %d): %w", phase, cycle, err)
			}
			phase = next(phase, p.verifier != nil)

		case PhaseVerify:
			res := p.verifier.RunFile(ctx, p.artifact)
			report.Final = res
			report.Verified = true
			logger.Info("pipeline.verify", "cycle", cycle, "ok", res.OK(), "exit_code", res.ExitCode, "timed_out", res.TimedOut)

			switch {
			case res.OK():
				report.Converged = true
				phase = PhaseDone
			case cycle < p.opts.MaxCycles:
				cycle++
				phase = PhaseDiagnose
			default:
				phase = PhaseDone
			}
		}
	}

	report.Duration = time.Since(start)
	logger.Info("pipeline.done", "cycles", report.Cycles, "converged", report.Converged, "duration_ms", report.Duration.Milliseconds())
	return report, nil
}

func next(phase Phase, verify bool) Phase {
	switch phase {
	case PhaseDiagnose:
		return PhasePlan
	case PhasePlan:
		return PhaseExecute
	case PhaseExecute:
		if verify {
			return PhaseVerify
		}
		return PhaseDone
	default:
		return PhaseDone
	}
}
