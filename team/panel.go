package team

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/roundtable/agent"
	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/internal/util"
	"github.com/hupe1980/roundtable/logging"
)

// DefaultPanelPrompt is the per-panelist prompt template. It is rendered with
// PanelPromptData.
const DefaultPanelPrompt = "Shared task: {{.Task}}\n\n" +
	"Prior contributions:\n{{.Prior}}\n\n" +
	"Respond once as instructed in your system message. Stay within 120 words."

// NoPriorContributions stands in for an empty contribution list.
const NoPriorContributions = "No prior contributions."

// PanelPromptData is the data passed to the panel prompt template.
type PanelPromptData struct {
	Task  string
	Prior string
}

// Panelist is one participant of a Panel.
type Panelist struct {
	Agent agent.Agent
	// Prefix is required at the start of the contribution, e.g. "Skeptic:".
	Prefix string
	// Label is used when presenting the contribution, e.g. "Skeptic (gpt-4.1)".
	Label string
}

// Contribution is a panelist's single reply.
type Contribution struct {
	Panelist string
	Label    string
	Text     string
}

// PanelOptions configure a Panel.
type PanelOptions struct {
	Prompt         string
	Logger         logging.Logger
	Observer       core.Observer
	OnContribution func(Contribution)
}

// Panel asks every panelist exactly once, in order.
type Panel struct {
	panelists []Panelist
	opts      PanelOptions
}

// NewPanel validates the panelists and builds the panel.
func NewPanel(panelists []Panelist, optFns ...func(o *PanelOptions)) (*Panel, error) {
	if len(panelists) == 0 {
		return nil, core.ErrNoAgents
	}
	seen := make(map[string]struct{}, len(panelists))
	for i, p := range panelists {
		if p.Agent == nil {
			return nil, &core.ConfigError{Field: "panelists", Reason: fmt.Sprintf("panelist %d has no agent", i)}
		}
		if _, dup := seen[p.Agent.Name()]; dup {
			return nil, &core.ConfigError{Field: "panelists", Reason: fmt.Sprintf("duplicate panelist %q", p.Agent.Name())}
		}
		seen[p.Agent.Name()] = struct{}{}
	}

	opts := PanelOptions{Prompt: DefaultPanelPrompt}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.Observer == nil {
		opts.Observer = core.NopObserver{}
	}

	return &Panel{panelists: append([]Panelist(nil), panelists...), opts: opts}, nil
}

// Run calls each panelist once with the task and the contributions so far
// (starting from prior) and returns the contributions of this run in order.
func (p *Panel) Run(ctx context.Context, task string, prior []string) ([]Contribution, error) {
	texts := append([]string(nil), prior...)
	out := make([]Contribution, 0, len(p.panelists))

	for _, pl := range p.panelists {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		prompt, err := p.prompt(task, texts)
		if err != nil {
			return out, err
		}

		text, err := p.ask(ctx, pl, prompt)
		if err != nil {
			return out, fmt.Errorf("panelist %s: %w", pl.Agent.Name(), err)
		}

		c := Contribution{Panelist: pl.Agent.Name(), Label: pl.label(), Text: text}
		texts = append(texts, text)
		out = append(out, c)
		if p.opts.OnContribution != nil {
			p.opts.OnContribution(c)
		}
		p.opts.Logger.Info("team.panel.contribution", "panelist", c.Panelist, "chars", len(text))
	}

	return out, nil
}

func (p *Panel) prompt(task string, contributions []string) (string, error) {
	prior := NoPriorContributions
	if len(contributions) > 0 {
		prior = strings.Join(contributions, "\n")
	}
	out, err := util.RenderTemplate(p.opts.Prompt, PanelPromptData{Task: task, Prior: prior})
	if err != nil {
		return "", fmt.Errorf("render panel prompt: %w", err)
	}
	return out, nil
}

// ask runs one fresh single-turn session for the panelist.
func (p *Panel) ask(ctx context.Context, pl Panelist, prompt string) (string, error) {
	sessionID := core.NewID()
	tr := core.NewTranscript(sessionID)

	taskMsg, err := tr.Append(core.NewTextMessage(core.TaskSender, 0, prompt))
	if err != nil {
		return "", err
	}
	p.opts.Observer.OnMessage(taskMsg)

	msg, err := pl.Agent.Turn(&agent.TurnContext{
		Context:    ctx,
		SessionID:  sessionID,
		Turn:       1,
		Transcript: tr,
		Logger:     p.opts.Logger,
		Observer:   p.opts.Observer,
	})
	if err != nil {
		return "", err
	}
	if msg.IsChat() {
		msg.Sender = pl.Agent.Name()
		msg.Turn = 1
		appended, err := tr.Append(msg)
		if err != nil {
			return "", err
		}
		p.opts.Observer.OnMessage(appended)
	}

	replies := make([]core.Message, 0, 1)
	for _, m := range tr.Messages() {
		if m.Sender == pl.Agent.Name() {
			replies = append(replies, m)
		}
	}
	text, err := core.LastChatText(replies)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if pl.Prefix != "" && !strings.HasPrefix(text, pl.Prefix) {
		text = strings.TrimSpace(pl.Prefix + " " + text)
	}
	return text, nil
}

func (pl Panelist) label() string {
	if pl.Label != "" {
		return pl.Label
	}
	return pl.Agent.Name()
}
