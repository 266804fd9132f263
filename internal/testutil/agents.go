package testutil

import (
	"fmt"
	"sync"

	"github.com/hupe1980/roundtable/agent"
	"github.com/hupe1980/roundtable/core"
)

// EchoAgent replies "<name> turn <n>" on every turn.
func EchoAgent(name string) *agent.FuncAgent {
	return agent.NewFuncAgent(name, func(tc *agent.TurnContext) (string, error) {
		return fmt.Sprintf("%s turn %d", name, tc.Turn), nil
	})
}

// ScriptedAgent replies with the given texts in order and fails once they
// are used up.
func ScriptedAgent(name string, replies ...string) *agent.FuncAgent {
	var (
		mu   sync.Mutex
		next int
	)
	return agent.NewFuncAgent(name, func(*agent.TurnContext) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(replies) {
			return "", fmt.Errorf("%s: script exhausted", name)
		}
		r := replies[next]
		next++
		return r, nil
	})
}

// FailingAgent fails every turn with err.
func FailingAgent(name string, err error) *agent.FuncAgent {
	return agent.NewFuncAgent(name, func(*agent.TurnContext) (string, error) {
		return "", err
	})
}

// ChatSenders returns the senders of the chat messages in msgs.
func ChatSenders(msgs []core.Message) []string {
	var out []string
	for _, m := range msgs {
		if m.IsChat() {
			out = append(out, m.Sender)
		}
	}
	return out
}
