package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aerissecure/cellfind/convert"
)

// Confirmer answers conversion prompts from inside a running picker. Confirm
// blocks the calling goroutine until the user answers in the UI.
type Confirmer struct {
	requests chan *request
}

type request struct {
	prompt convert.Prompt
	answer chan bool
}

// NewConfirmer returns a Confirmer to pass to both the conversion cache and
// the Picker.
func NewConfirmer() *Confirmer {
	return &Confirmer{requests: make(chan *request)}
}

// Confirm implements convert.Confirmer.
func (c *Confirmer) Confirm(ctx context.Context, p convert.Prompt) (bool, error) {
	req := &request{prompt: p, answer: make(chan bool, 1)}
	select {
	case c.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-req.answer:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type promptMsg struct{ req *request }

// listen waits for the next prompt.
func (c *Confirmer) listen() tea.Cmd {
	return func() tea.Msg {
		return promptMsg{req: <-c.requests}
	}
}

func renderPrompt(p convert.Prompt) string {
	var b strings.Builder
	b.WriteString(p.Message())
	b.WriteString("\n\n")
	b.WriteString(helpKeyStyle.Render("y"))
	b.WriteString(helpDescStyle.Render(" to confirm, "))
	b.WriteString(helpKeyStyle.Render("n"))
	b.WriteString(helpDescStyle.Render(" to cancel"))
	return promptStyle.Render(b.String())
}
