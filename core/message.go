package core

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a transcript entry.
type Kind string

const (
	// KindText is a chat message: the task or an agent's reply for a turn.
	KindText Kind = "text"
	// KindToolCall records the tool invocations an agent requested.
	KindToolCall Kind = "tool_call"
	// KindToolResult records the text returned by the invoked tools.
	KindToolResult Kind = "tool_result"
)

// TaskSender is the sender recorded for the task that opens a session.
const TaskSender = "user"

// Message is one immutable transcript entry. Seq and Timestamp are assigned
// by the Transcript on append.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Seq       int       `json:"seq"`
	Turn      int       `json:"turn"` // 0 for the task, agent turns start at 1
	Sender    string    `json:"sender"`
	Kind      Kind      `json:"kind"`
	Content   Content   `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewID generates a new unique identifier for messages and sessions.
func NewID() string { return uuid.NewString() }

// NewTextMessage creates a chat message authored by sender.
func NewTextMessage(sender string, turn int, text string) Message {
	role := RoleAssistant
	if sender == TaskSender {
		role = RoleUser
	}
	return Message{
		ID:      NewID(),
		Turn:    turn,
		Sender:  sender,
		Kind:    KindText,
		Content: NewTextContent(role, text),
	}
}

// NewToolCallMessage records the calls an agent requested during its turn.
func NewToolCallMessage(sender string, turn int, text string, calls []FunctionCall) Message {
	parts := make([]Part, 0, len(calls)+1)
	if text != "" {
		parts = append(parts, TextPart{Text: text})
	}
	for _, fc := range calls {
		parts = append(parts, FunctionCallPart{FunctionCall: fc})
	}
	return Message{
		ID:      NewID(),
		Turn:    turn,
		Sender:  sender,
		Kind:    KindToolCall,
		Content: Content{Role: RoleAssistant, Parts: parts},
	}
}

// NewToolResultMessage records tool outputs in the order of their calls.
func NewToolResultMessage(sender string, turn int, results []FunctionResponse) Message {
	parts := make([]Part, 0, len(results))
	for _, fr := range results {
		parts = append(parts, FunctionResponsePart{FunctionResponse: fr})
	}
	return Message{
		ID:      NewID(),
		Turn:    turn,
		Sender:  sender,
		Kind:    KindToolResult,
		Content: Content{Role: RoleTool, Parts: parts},
	}
}

// IsChat reports whether the message is a chat message rather than a tool record.
func (m Message) IsChat() bool { return m.Kind == KindText }

// Text returns the concatenated text parts of the message.
func (m Message) Text() string { return m.Content.Text() }
