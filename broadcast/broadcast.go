// Package broadcast publishes transcript activity to NATS so that external
// tools can follow sessions live.
package broadcast

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
)

// DefaultPrefix is the subject root used when none is configured.
const DefaultPrefix = "roundtable"

// SubjectMessage is the subject a session's messages are published on.
func SubjectMessage(prefix, sessionID string) string {
	return fmt.Sprintf("%s.session.%s.message", prefix, sessionID)
}

// SubjectChunk is the subject partial model output is published on.
func SubjectChunk(prefix, sessionID string) string {
	return fmt.Sprintf("%s.session.%s.chunk", prefix, sessionID)
}

// SubjectAll matches every session event below prefix.
func SubjectAll(prefix string) string {
	return prefix + ".session.>"
}

// Chunk is the payload published for partial output.
type Chunk struct {
	SessionID string `json:"session_id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
}

// Publisher is a core.Observer that publishes messages as core.Record JSON.
type Publisher struct {
	conn   *nats.Conn
	owned  bool
	prefix string
	logger logging.Logger

	mu  sync.Mutex
	err error
}

// Connect dials url and returns a publisher owning the connection.
func Connect(url, prefix string, logger logging.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("roundtable"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	p := New(conn, prefix, logger)
	p.owned = true
	return p, nil
}

// New wraps an existing connection. Close leaves it open.
func New(conn *nats.Conn, prefix string, logger logging.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{conn: conn, prefix: prefix, logger: logging.OrNoOp(logger)}
}

// Prefix returns the subject root.
func (p *Publisher) Prefix() string { return p.prefix }

// PublishJSON marshals v and publishes it on subject.
func (p *Publisher) PublishJSON(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return p.conn.Publish(subject, data)
}

// OnMessage implements core.Observer.
func (p *Publisher) OnMessage(msg core.Message) {
	p.publish(SubjectMessage(p.prefix, msg.SessionID), msg.Record())
}

// OnChunk implements core.Observer.
func (p *Publisher) OnChunk(sessionID, sender, text string) {
	p.publish(SubjectChunk(p.prefix, sessionID), Chunk{SessionID: sessionID, Sender: sender, Text: text})
}

func (p *Publisher) publish(subject string, v any) {
	if err := p.PublishJSON(subject, v); err != nil {
		p.logger.Warn("broadcast.publish.failed", "subject", subject, "error", err)
		p.mu.Lock()
		if p.err == nil {
			p.err = err
		}
		p.mu.Unlock()
	}
}

// Err returns the first publish error.
func (p *Publisher) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Flush waits until the server has processed everything published so far.
func (p *Publisher) Flush() error {
	return p.conn.Flush()
}

// Close flushes and, for publishers created by Connect, closes the connection.
func (p *Publisher) Close() error {
	err := p.conn.Flush()
	if p.owned {
		p.conn.Close()
	}
	return err
}
