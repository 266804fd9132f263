package testutil

import (
	"strings"
	"sync"

	"github.com/hupe1980/roundtable/core"
)

// RecordingObserver captures every message and chunk it is notified about.
type RecordingObserver struct {
	mu       sync.Mutex
	messages []core.Message
	chunks   map[string]*strings.Builder
}

// NewRecordingObserver creates an empty recorder.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{chunks: make(map[string]*strings.Builder)}
}

// OnMessage implements core.Observer.
func (r *RecordingObserver) OnMessage(m core.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// OnChunk implements core.Observer.
func (r *RecordingObserver) OnChunk(_, sender, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.chunks[sender]
	if !ok {
		b = &strings.Builder{}
		r.chunks[sender] = b
	}
	b.WriteString(text)
}

// Messages returns a copy of the recorded messages.
func (r *RecordingObserver) Messages() []core.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Message(nil), r.messages...)
}

// Senders returns the sender of every recorded chat message in order.
func (r *RecordingObserver) Senders() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.messages {
		if m.IsChat() {
			out = append(out, m.Sender)
		}
	}
	return out
}

// Streamed returns the concatenated chunks streamed by sender.
func (r *RecordingObserver) Streamed(sender string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.chunks[sender]; ok {
		return b.String()
	}
	return ""
}
