package agent

import (
	"fmt"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/model"
)

// RequestProcessor contributes one aspect of a model request.
type RequestProcessor interface {
	Name() string
	ProcessRequest(tc *TurnContext, req *model.Request, a *ModelAgent) error
}

// instructionsProcessor resolves the persona's system prompt.
type instructionsProcessor struct{}

func (instructionsProcessor) Name() string { return "instructions" }

func (instructionsProcessor) ProcessRequest(tc *TurnContext, req *model.Request, a *ModelAgent) error {
	instructions, err := a.instruction.Resolve(tc)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}
	tc.logger().Debug("agent.instruction.resolved", "agent", a.Name(), "length", len(instructions))
	req.Instructions = instructions
	return nil
}

// contentsProcessor converts the transcript into the agent's point of view.
//
// Own chat messages become assistant content; chat messages of others
// (including the task) become user content prefixed with the sender. The
// agent's own tool records are kept so tool calls stay paired with their
// results; tool records of other agents are not visible.
type contentsProcessor struct{}

func (contentsProcessor) Name() string { return "contents" }

func (contentsProcessor) ProcessRequest(tc *TurnContext, req *model.Request, a *ModelAgent) error {
	visible := visibleHistory(tc.Transcript.Messages(), a.Name())
	visible = trimHistory(visible, a.opts.MaxHistoryMessages)

	contents := make([]core.Content, 0, len(visible))
	for _, msg := range visible {
		contents = append(contents, contentFor(msg, a.Name()))
	}
	req.Contents = contents
	return nil
}

// toolsProcessor declares the agent's tools.
type toolsProcessor struct{}

func (toolsProcessor) Name() string { return "tools" }

func (toolsProcessor) ProcessRequest(_ *TurnContext, req *model.Request, a *ModelAgent) error {
	if a.tools != nil && a.tools.Len() > 0 {
		req.Tools = a.tools.Definitions()
	}
	req.Stream = a.opts.Streaming
	return nil
}

func visibleHistory(messages []core.Message, self string) []core.Message {
	out := make([]core.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.IsChat() || msg.Sender == self {
			out = append(out, msg)
		}
	}
	return out
}

// trimHistory keeps the last limit messages without starting on an orphaned
// tool result.
func trimHistory(messages []core.Message, limit int) []core.Message {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	start := len(messages) - limit
	for start < len(messages) && messages[start].Kind == core.KindToolResult {
		start++
	}
	return messages[start:]
}

func contentFor(msg core.Message, self string) core.Content {
	switch {
	case msg.Sender == self:
		return msg.Content
	case msg.Text() == "":
		return core.NewTextContent(core.RoleUser, msg.Sender+":")
	default:
		return core.NewTextContent(core.RoleUser, msg.Sender+": "+msg.Text())
	}
}
