// Package tui is a terminal selection surface for capture negotiation.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"sharkhost/capture"
	"sharkhost/negotiate"
)

var ErrNoTerminal = errors.New("stdin is not a terminal")

// Chooser runs a full-screen picker on the controlling terminal. When the
// program exits it emits selected or canceled, followed by closed.
type Chooser struct {
	In  io.Reader
	Out io.Writer
	// IsTerminal reports whether In is interactive.
	IsTerminal func() bool

	mu      sync.Mutex
	h       *negotiate.Handlers
	payload capture.Payload
	prog    *tea.Program
	closed  bool
}

func NewChooser() *Chooser {
	return &Chooser{
		In:         os.Stdin,
		Out:        os.Stdout,
		IsTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

// Factory adapts NewChooser to negotiate.SurfaceFactory.
func Factory() (negotiate.Surface, error) {
	return NewChooser(), nil
}

func (c *Chooser) Attach(h negotiate.Handlers) func() {
	c.mu.Lock()
	c.h = &h
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.h = nil
		c.mu.Unlock()
	}
}

func (c *Chooser) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.IsTerminal != nil && !c.IsTerminal() {
		return ErrNoTerminal
	}
	return nil
}

func (c *Chooser) Push(p capture.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return negotiate.ErrSurfaceClosed
	}
	c.payload = p
	return nil
}

func (c *Chooser) Show() {
	c.mu.Lock()
	if c.closed || c.prog != nil {
		c.mu.Unlock()
		return
	}
	c.prog = tea.NewProgram(newModel(c.payload),
		tea.WithInput(c.In),
		tea.WithOutput(c.Out),
		tea.WithAltScreen(),
	)
	prog := c.prog
	c.mu.Unlock()

	go c.run(prog)
}

func (c *Chooser) run(prog *tea.Program) {
	final, err := prog.Run()

	c.mu.Lock()
	c.closed = true
	h := c.h
	c.mu.Unlock()
	if h == nil {
		return
	}

	m, ok := final.(model)
	switch {
	case err != nil || !ok:
		// treated as the window going away
	case m.result == resultSelected:
		if h.Selected != nil {
			h.Selected(m.selection())
		}
	case m.result == resultCanceled:
		if h.Canceled != nil {
			h.Canceled()
		}
	}

	c.mu.Lock()
	h = c.h
	c.mu.Unlock()
	if h != nil && h.Closed != nil {
		h.Closed()
	}
}

func (c *Chooser) Close() {
	c.mu.Lock()
	prog := c.prog
	c.closed = true
	c.mu.Unlock()
	if prog != nil {
		prog.Quit()
	}
}

type result int

const (
	resultPending result = iota
	resultSelected
	resultCanceled
)

type model struct {
	payload capture.Payload
	cursor  int
	audio   int // 0 = system default, n = payload.Processes[n-1]
	result  result
	width   int
}

func newModel(p capture.Payload) model {
	return model{payload: p}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.result = resultCanceled
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.payload.Sources)-1 {
				m.cursor++
			}
		case "tab":
			m.audio = (m.audio + 1) % (len(m.payload.Processes) + 1)
		case "shift+tab":
			n := len(m.payload.Processes) + 1
			m.audio = (m.audio + n - 1) % n
		case "enter":
			if len(m.payload.Sources) == 0 {
				return m, nil
			}
			m.result = resultSelected
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) selection() negotiate.Selection {
	sel := negotiate.Selection{SourceID: m.payload.Sources[m.cursor].ID}
	if m.audio > 0 {
		sel.AudioProcessID = m.payload.Processes[m.audio-1].ID
	}
	return sel
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	itemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("249"))
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	audioStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
)

func (m model) audioLabel() string {
	if m.audio == 0 {
		return "system audio"
	}
	return m.payload.Processes[m.audio-1].Label
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Choose what to share"))
	b.WriteString("\n\n")

	for i, s := range m.payload.Sources {
		marker := "  "
		style := itemStyle
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
			style = cursorStyle
		}
		fmt.Fprintf(&b, "%s%s %s\n", marker, style.Render(s.Name), kindStyle.Render("("+string(s.Kind)+")"))
	}

	b.WriteString("\n")
	b.WriteString(audioStyle.Render("audio: " + m.audioLabel()))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/↓ select • tab audio • enter share • esc cancel"))
	return b.String()
}
