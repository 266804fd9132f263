package core

import (
	"fmt"
	"sync"
	"time"
)

// Transcript is the append-only, totally ordered history of a session. It is
// safe for concurrent access; readers always receive copies.
//
// Ordering contract:
//   - Seq is dense and assigned on append
//   - Turn numbers never decrease
//   - A turn has at most one chat message and its tool records precede it
type Transcript struct {
	sessionID    string
	messages     []Message
	lastTurn     int
	lastChatTurn int
	chatCount    int
	mu           sync.RWMutex
}

// NewTranscript creates an empty transcript for sessionID.
func NewTranscript(sessionID string) *Transcript {
	return &Transcript{sessionID: sessionID, messages: []Message{}, lastChatTurn: -1}
}

// SessionID returns the owning session identifier.
func (t *Transcript) SessionID() string { return t.sessionID }

// Append records msg, assigning its sequence number, session and timestamp.
// The stored copy is returned.
func (t *Transcript) Append(msg Message) (Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if msg.Turn < t.lastTurn {
		return Message{}, fmt.Errorf("%w: turn %d after turn %d", ErrTurnOrder, msg.Turn, t.lastTurn)
	}
	if msg.Turn == t.lastChatTurn {
		return Message{}, fmt.Errorf("%w: turn %d already has a reply", ErrTurnOrder, msg.Turn)
	}

	if msg.ID == "" {
		msg.ID = NewID()
	}
	msg.SessionID = t.sessionID
	msg.Seq = len(t.messages)
	msg.Timestamp = time.Now().UTC()

	t.messages = append(t.messages, msg)
	t.lastTurn = msg.Turn
	if msg.IsChat() {
		t.lastChatTurn = msg.Turn
		t.chatCount++
	}

	return msg, nil
}

// Messages returns a copy of every recorded message.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Since returns a copy of the messages with Seq >= seq.
func (t *Transcript) Since(seq int) []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if seq < 0 {
		seq = 0
	}
	if seq >= len(t.messages) {
		return []Message{}
	}
	out := make([]Message, len(t.messages)-seq)
	copy(out, t.messages[seq:])
	return out
}

// Len returns the number of recorded messages, tool records included.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// ChatCount returns the number of chat messages.
func (t *Transcript) ChatCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.chatCount
}

// LastChatText returns the text of the latest chat message.
func (t *Transcript) LastChatText() (string, error) {
	return LastChatText(t.Messages())
}

// LastChatText returns the text of the latest chat message in messages or
// ErrNoChatMessage when there is none.
func LastChatText(messages []Message) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsChat() {
			return messages[i].Text(), nil
		}
	}
	return "", ErrNoChatMessage
}
