package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/aerissecure/cellfind/convert"
)

// TerminalConfirmer asks y/N questions on a terminal. Anything other than
// "y" or "yes" is a no, including end of input.
type TerminalConfirmer struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalConfirmer reads answers from in and writes questions to out.
func NewTerminalConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm implements convert.Confirmer.
func (c *TerminalConfirmer) Confirm(ctx context.Context, p convert.Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s %s ", p.Message(), color.New(color.Bold).Sprint("[y/N]"))
	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	if err == io.EOF && line == "" {
		fmt.Fprintln(c.out)
	}
	return parseAnswer(line), nil
}

func parseAnswer(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
