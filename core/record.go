package core

import "time"

// Record is the flat, serializable form of a Message used for persistence
// and publishing. Parts are split by kind since Part has no wire form.
type Record struct {
	ID        string             `json:"id"`
	SessionID string             `json:"session_id"`
	Seq       int                `json:"seq"`
	Turn      int                `json:"turn"`
	Sender    string             `json:"sender"`
	Kind      Kind               `json:"kind"`
	Role      string             `json:"role"`
	Text      string             `json:"text,omitempty"`
	Calls     []FunctionCall     `json:"calls,omitempty"`
	Results   []FunctionResponse `json:"results,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Record flattens the message.
func (m Message) Record() Record {
	return Record{
		ID:        m.ID,
		SessionID: m.SessionID,
		Seq:       m.Seq,
		Turn:      m.Turn,
		Sender:    m.Sender,
		Kind:      m.Kind,
		Role:      m.Content.Role,
		Text:      m.Text(),
		Calls:     m.Content.FunctionCalls(),
		Results:   m.Content.FunctionResponses(),
		Timestamp: m.Timestamp,
	}
}

// Message rebuilds the transcript entry. Text is placed before calls, which
// matches how messages are constructed.
func (r Record) Message() Message {
	parts := make([]Part, 0, 1+len(r.Calls)+len(r.Results))
	if r.Text != "" {
		parts = append(parts, TextPart{Text: r.Text})
	}
	for _, fc := range r.Calls {
		parts = append(parts, FunctionCallPart{FunctionCall: fc})
	}
	for _, fr := range r.Results {
		parts = append(parts, FunctionResponsePart{FunctionResponse: fr})
	}
	return Message{
		ID:        r.ID,
		SessionID: r.SessionID,
		Seq:       r.Seq,
		Turn:      r.Turn,
		Sender:    r.Sender,
		Kind:      r.Kind,
		Content:   Content{Role: r.Role, Parts: parts},
		Timestamp: r.Timestamp,
	}
}
