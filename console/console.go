// Package console renders live transcript activity to a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hupe1980/roundtable/core"
)

// Printer is a core.Observer writing a readable transcript to w. Streamed
// chunks are printed as they arrive and the final message of a streamed turn
// only closes the block.
type Printer struct {
	w         io.Writer
	showTools bool

	mu        sync.Mutex
	streaming string // sender whose chunks are being printed
}

// Option configures a Printer.
type Option func(p *Printer)

// WithToolActivity prints tool calls and results in addition to chat.
func WithToolActivity() Option {
	return func(p *Printer) { p.showTools = true }
}

func New(w io.Writer, opts ...Option) *Printer {
	p := &Printer{w: w}
	for _, o := range opts {
		o(p)
	}
	return p
}

func header(sender string) string {
	return fmt.Sprintf("---------- %s ----------\n", sender)
}

// OnChunk implements core.Observer.
func (p *Printer) OnChunk(_, sender, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streaming != sender {
		if p.streaming != "" {
			fmt.Fprintln(p.w)
		}
		fmt.Fprint(p.w, header(sender))
		p.streaming = sender
	}
	fmt.Fprint(p.w, text)
}

// OnMessage implements core.Observer.
func (p *Printer) OnMessage(msg core.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch msg.Kind {
	case core.KindText:
		if p.streaming == msg.Sender {
			fmt.Fprintln(p.w)
			p.streaming = ""
			return
		}
		p.endStream()
		fmt.Fprint(p.w, header(msg.Sender))
		fmt.Fprintln(p.w, msg.Text())
	case core.KindToolCall:
		if !p.showTools {
			return
		}
		p.endStream()
		for _, fc := range msg.Content.FunctionCalls() {
			fmt.Fprintf(p.w, "[%s -> %s] %s\n", msg.Sender, fc.Name, fc.Arguments)
		}
	case core.KindToolResult:
		if !p.showTools {
			return
		}
		p.endStream()
		for _, fr := range msg.Content.FunctionResponses() {
			fmt.Fprintf(p.w, "[%s <- %s] %s\n", msg.Sender, fr.Name, firstLine(fr.Response))
		}
	}
}

func (p *Printer) endStream() {
	if p.streaming != "" {
		fmt.Fprintln(p.w)
		p.streaming = ""
	}
}

// Contribution prints a labeled panel contribution.
func (p *Printer) Contribution(label, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endStream()
	fmt.Fprintf(p.w, "--- %s ---\n%s\n", label, text)
}

// StopReason prints the reason a session ended.
func (p *Printer) StopReason(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endStream()
	fmt.Fprintf(p.w, "Stop reason: %s\n", reason)
}

// Section prints a banner line, e.g. before each pipeline phase.
func (p *Printer) Section(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endStream()
	fmt.Fprintf(p.w, "\n=== %s ===\n", title)
}

// Println prints a plain line.
func (p *Printer) Println(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endStream()
	fmt.Fprintln(p.w, text)
}

func firstLine(s string) string {
	line, rest, found := strings.Cut(s, "\n")
	if found && strings.TrimSpace(rest) != "" {
		return line + " …"
	}
	return line
}
