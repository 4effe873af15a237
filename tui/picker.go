// Package tui is an interactive picker: it runs a folder search, lists the
// matches and opens the chosen one, asking before any conversion.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aerissecure/cellfind"
	"github.com/aerissecure/cellfind/notify"
	"github.com/aerissecure/cellfind/search"
)

// Flow is the part of cellfind.App the picker drives.
type Flow interface {
	Find(folder, keyword string, opts ...notify.Option[search.Result]) *notify.Task[search.Result]
	OpenMatch(ctx context.Context, m search.Match) (cellfind.Opened, error)
}

type state int

const (
	stateSearching state = iota
	stateResults
	stateConfirm
	stateOpening
)

const defaultTableHeight = 15

// Picker is the bubbletea model.
type Picker struct {
	flow    Flow
	prompts *Confirmer
	folder  string
	keyword string
	keys    KeyMap

	state   state
	spinner spinner.Model
	table   table.Model
	result  search.Result
	pending *request

	message    string
	messageErr bool

	// copy writes to the system clipboard.
	copy func(string) error

	width  int
	height int
}

type searchDoneMsg struct {
	result search.Result
	err    error
}

type openedMsg struct {
	opened cellfind.Opened
	err    error
}

// NewPicker builds a picker for keyword in folder. prompts may be nil when the
// flow's conversion cache never asks.
func NewPicker(flow Flow, prompts *Confirmer, folder, keyword string) *Picker {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = subtitleStyle

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(defaultTableHeight),
	)
	ts := table.DefaultStyles()
	ts.Selected = selectedStyle
	t.SetStyles(ts)

	return &Picker{
		flow:    flow,
		prompts: prompts,
		folder:  folder,
		keyword: keyword,
		keys:    DefaultKeys,
		state:   stateSearching,
		spinner: s,
		table:   t,
		copy:    clipboard.WriteAll,
	}
}

func columns(width int) []table.Column {
	text := max(width-48, 20)
	return []table.Column{
		{Title: "File", Width: 24},
		{Title: "Sheet", Width: 14},
		{Title: "Cell", Width: 6},
		{Title: "Text", Width: text},
	}
}

// Init starts the search.
func (p *Picker) Init() tea.Cmd {
	cmds := []tea.Cmd{p.spinner.Tick, p.search()}
	if p.prompts != nil {
		cmds = append(cmds, p.prompts.listen())
	}
	return tea.Batch(cmds...)
}

func (p *Picker) search() tea.Cmd {
	flow, folder, keyword := p.flow, p.folder, p.keyword
	return func() tea.Msg {
		res, err := flow.Find(folder, keyword).Wait(context.Background())
		return searchDoneMsg{result: res, err: err}
	}
}

func (p *Picker) open(m search.Match) tea.Cmd {
	flow := p.flow
	return func() tea.Msg {
		opened, err := flow.OpenMatch(context.Background(), m)
		return openedMsg{opened: opened, err: err}
	}
}

// Update handles messages.
func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width, p.height = msg.Width, msg.Height
		p.table.SetColumns(columns(msg.Width - 4))
		p.table.SetHeight(max(msg.Height-10, 3))
		return p, nil

	case spinner.TickMsg:
		if p.state != stateSearching && p.state != stateOpening {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd

	case searchDoneMsg:
		p.state = stateResults
		if msg.err != nil {
			p.setMessage(msg.err.Error(), true)
			return p, nil
		}
		p.result = msg.result
		p.table.SetRows(rows(msg.result.Matches))
		p.setMessage(summary(msg.result), false)
		return p, nil

	case promptMsg:
		p.pending = msg.req
		p.state = stateConfirm
		return p, nil

	case openedMsg:
		p.state = stateResults
		if msg.err != nil {
			p.setMessage(msg.err.Error(), true)
			return p, nil
		}
		out := msg.opened.Outcome
		text := fmt.Sprintf("Opened %s at %s!%s", filepath.Base(out.Path), out.Sheet, out.Active)
		if !msg.opened.Launched {
			text = fmt.Sprintf("Moved %s to %s!%s", filepath.Base(out.Path), out.Sheet, out.Active)
		}
		p.setMessage(text, false)
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p *Picker) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if p.state == stateConfirm {
		switch {
		case key.Matches(msg, p.keys.Confirm):
			return p, p.answer(true)
		case key.Matches(msg, p.keys.Cancel), msg.String() == "ctrl+c":
			return p, p.answer(false)
		}
		return p, nil
	}

	switch {
	case key.Matches(msg, p.keys.Quit):
		return p, tea.Quit

	case p.state != stateResults:
		return p, nil

	case key.Matches(msg, p.keys.Open):
		m, ok := p.Selected()
		if !ok {
			return p, nil
		}
		p.state = stateOpening
		p.setMessage("", false)
		return p, tea.Batch(p.spinner.Tick, p.open(m))

	case key.Matches(msg, p.keys.Copy):
		m, ok := p.Selected()
		if !ok {
			return p, nil
		}
		ref := Reference(m)
		if err := p.copy(ref); err != nil {
			p.setMessage("clipboard: "+err.Error(), true)
			return p, nil
		}
		p.setMessage("Copied "+ref, false)
		return p, nil
	}

	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return p, cmd
}

// answer replies to the pending prompt and waits for the next one.
func (p *Picker) answer(ok bool) tea.Cmd {
	if p.pending != nil {
		p.pending.answer <- ok
		p.pending = nil
	}
	p.state = stateOpening
	return tea.Batch(p.spinner.Tick, p.prompts.listen())
}

// Selected returns the highlighted match.
func (p *Picker) Selected() (search.Match, bool) {
	i := p.table.Cursor()
	if i < 0 || i >= len(p.result.Matches) {
		return search.Match{}, false
	}
	return p.result.Matches[i], true
}

func (p *Picker) setMessage(text string, isErr bool) {
	p.message, p.messageErr = text, isErr
}

// Reference is an Excel-style external reference to m, e.g. '[book.xlsx]Data'!B2.
func Reference(m search.Match) string {
	return fmt.Sprintf("'[%s]%s'!%s", filepath.Base(m.Workbook.Path), strings.ReplaceAll(m.Sheet, "'", "''"), m.Address())
}

func rows(matches []search.Match) []table.Row {
	out := make([]table.Row, len(matches))
	for i, m := range matches {
		out[i] = table.Row{filepath.Base(m.Workbook.Path), m.Sheet, m.Address(), oneLine(m.Text)}
	}
	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func summary(res search.Result) string {
	s := fmt.Sprintf("%d match(es) in %d workbook(s)", len(res.Matches), res.Files)
	if n := len(res.Failures); n > 0 {
		s += fmt.Sprintf(", %d unreadable", n)
	}
	return s
}

// View renders the picker.
func (p *Picker) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("cellfind: %q in %s", p.keyword, p.folder)))
	b.WriteString("\n")

	switch p.state {
	case stateSearching:
		b.WriteString(p.spinner.View())
		b.WriteString(" Searching...")
		return appStyle.Render(b.String())
	case stateConfirm:
		if p.pending != nil {
			b.WriteString(renderPrompt(p.pending.prompt))
		}
		return appStyle.Render(b.String())
	}

	if len(p.result.Matches) > 0 {
		b.WriteString(p.table.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case p.state == stateOpening:
		b.WriteString(p.spinner.View())
		b.WriteString(" Opening...")
	case p.messageErr:
		b.WriteString(errorStyle.Render(p.message))
	case p.message != "":
		b.WriteString(successStyle.Render(p.message))
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		helpKeyStyle.Render("↑/↓"),
		helpDescStyle.Render("navigate"),
		helpKeyStyle.Render("enter"),
		helpDescStyle.Render("open"),
		helpKeyStyle.Render("c"),
		helpDescStyle.Render("copy reference"),
		helpKeyStyle.Render("q"),
		helpDescStyle.Render("quit"),
	))
	return appStyle.Render(b.String())
}

// Run starts the picker on the terminal and blocks until the user quits.
func Run(flow Flow, prompts *Confirmer, folder, keyword string) error {
	_, err := tea.NewProgram(NewPicker(flow, prompts, folder, keyword), tea.WithAltScreen()).Run()
	return err
}
