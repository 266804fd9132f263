package team

import (
	"fmt"
	"strings"

	"github.com/hupe1980/roundtable/core"
)

// Termination decides when a session stops. Check receives the messages
// appended since the previous call and returns true with a reason once the
// session should end. Implementations are stateful; Reset restores the
// initial state before a new run.
type Termination interface {
	Check(delta []core.Message) (bool, string)
	Reset()
}

// MaxMessagesTermination stops once n chat messages were observed. The task
// counts; tool records do not.
type MaxMessagesTermination struct {
	max   int
	count int
}

// MaxMessages returns a termination that fires after n chat messages.
func MaxMessages(n int) *MaxMessagesTermination {
	return &MaxMessagesTermination{max: n}
}

// Check implements Termination.
func (t *MaxMessagesTermination) Check(delta []core.Message) (bool, string) {
	for _, m := range delta {
		if m.IsChat() {
			t.count++
		}
	}
	if t.count >= t.max {
		return true, fmt.Sprintf("Maximum number of messages %d reached, current message count: %d", t.max, t.count)
	}
	return false, ""
}

// Reset implements Termination.
func (t *MaxMessagesTermination) Reset() { t.count = 0 }

// TextMentionTermination stops when an agent's chat message contains a
// given text, e.g. a reviewer's "APPROVED". The task itself never triggers it.
type TextMentionTermination struct {
	text string
}

// TextMention returns a termination that fires when text is mentioned.
func TextMention(text string) *TextMentionTermination {
	return &TextMentionTermination{text: text}
}

// Check implements Termination.
func (t *TextMentionTermination) Check(delta []core.Message) (bool, string) {
	for _, m := range delta {
		if m.IsChat() && m.Sender != core.TaskSender && strings.Contains(m.Text(), t.text) {
			return true, fmt.Sprintf("Text '%s' mentioned", t.text)
		}
	}
	return false, ""
}

// Reset implements Termination.
func (t *TextMentionTermination) Reset() {}

type anyTermination []Termination

// Any fires as soon as one of terms fires. Every term sees every delta.
// Nil terms are ignored.
func Any(terms ...Termination) Termination {
	out := make(anyTermination, 0, len(terms))
	for _, t := range terms {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (a anyTermination) Check(delta []core.Message) (bool, string) {
	var (
		stop   bool
		reason string
	)
	for _, t := range a {
		if ok, r := t.Check(delta); ok && !stop {
			stop, reason = true, r
		}
	}
	return stop, reason
}

func (a anyTermination) Reset() {
	for _, t := range a {
		t.Reset()
	}
}
