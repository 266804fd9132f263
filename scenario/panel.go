package scenario

import (
	"context"

	"github.com/hupe1980/roundtable/config"
	"github.com/hupe1980/roundtable/team"
)

// PanelTask is the shared brief handed to every panelist.
const PanelTask = "Draft the key talking points for a two-minute community talk on preparing " +
	"neighborhoods for heat waves. Focus on actionable advice regular residents can follow."

type panelist struct {
	persona
	prefix string
	label  string
}

var panelists = []panelist{
	{
		persona: persona{
			name:        "visionary",
			description: "Big-picture strategist using GPT-4o.",
			instruction: "You are Visionary using the gpt-4o model. Offer bold, forward-looking ideas. Provide " +
				"exactly one response under 120 words, prefixed with 'Visionary:'. Do NOT ask questions or " +
				"mention handing off to other agents.",
		},
		prefix: "Visionary:",
		label:  "Visionary (gpt-4o)",
	},
	{
		persona: persona{
			name:        "planner",
			description: "Pragmatic planner using GPT-4.1-mini.",
			instruction: "You are Planner using the gpt-4.1-mini model. Translate previous ideas into concrete " +
				"steps. Provide exactly one response under 120 words, prefixed with 'Planner:'. Do NOT ask " +
				"questions or start a new conversation; reference earlier remarks if helpful.",
		},
		prefix: "Planner:",
		label:  "Planner (gpt-4.1-mini)",
	},
	{
		persona: persona{
			name:        "skeptic",
			description: "Risk-focused reviewer using GPT-4.1.",
			instruction: "You are Skeptic using the gpt-4.1 model. Stress-test the plan and highlight gaps. " +
				"Provide exactly one response under 120 words, prefixed with 'Skeptic:'. No questions. Close " +
				"with a verdict such as APPROVED or NEEDS WORK.",
		},
		prefix: "Skeptic:",
		label:  "Skeptic (gpt-4.1)",
	},
}

// PanelDiscussion is a panel bound to its task.
type PanelDiscussion struct {
	Panel *team.Panel
	Task  string
}

// Run asks every panelist once.
func (p *PanelDiscussion) Run(ctx context.Context) ([]team.Contribution, error) {
	return p.Panel.Run(ctx, p.Task, nil)
}

// Panel builds the visionary / planner / skeptic panel. onContribution, when
// set, sees each contribution as soon as it is available.
func Panel(env *Env, onContribution func(team.Contribution)) (*PanelDiscussion, error) {
	members := make([]team.Panelist, 0, len(panelists))
	for _, p := range panelists {
		a, err := env.agent(config.ScenarioPanel, p.persona, nil, false)
		if err != nil {
			return nil, err
		}
		members = append(members, team.Panelist{Agent: a, Prefix: p.prefix, Label: p.label})
	}

	panel, err := team.NewPanel(members, func(o *team.PanelOptions) {
		o.Logger = env.logger()
		o.Observer = env.observer()
		o.OnContribution = onContribution
	})
	if err != nil {
		return nil, err
	}
	return &PanelDiscussion{Panel: panel, Task: PanelTask}, nil
}
