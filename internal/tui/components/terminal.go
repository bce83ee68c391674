package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// MaxLines bounds the terminal history
const MaxLines = 5000

// Terminal is a scrolling log of lines with a follow-the-tail mode
type Terminal struct {
	viewport  viewport.Model
	formatter *Formatter
	lines     []LineMsg
	follow    bool
}

func NewTerminal(width, height int) *Terminal {
	return &Terminal{
		viewport:  viewport.New(width, height),
		formatter: NewFormatter(false, true),
		follow:    true,
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
	t.render()
}

func (t *Terminal) Width() int { return t.viewport.Width }

// Lines returns the retained lines, oldest first
func (t *Terminal) Lines() []LineMsg { return t.lines }

// Add appends msg, dropping the oldest line past MaxLines
func (t *Terminal) Add(msg LineMsg) {
	t.lines = append(t.lines, msg)
	if len(t.lines) > MaxLines {
		t.lines = t.lines[len(t.lines)-MaxLines:]
	}
	t.render()
}

// SetStatus updates the status of the TX line with sequence seq
func (t *Terminal) SetStatus(seq int, status string) bool {
	for i := len(t.lines) - 1; i >= 0; i-- {
		if t.lines[i].Dir == TX && t.lines[i].Seq == seq {
			t.lines[i].Status = status
			t.render()
			return true
		}
	}
	return false
}

func (t *Terminal) Clear() {
	t.lines = nil
	t.viewport.SetContent("")
}

func (t *Terminal) ToggleHex() {
	t.formatter.ToggleHex()
	t.render()
}

func (t *Terminal) ToggleASCII() {
	t.formatter.ToggleASCII()
	t.render()
}

func (t *Terminal) Mode() DisplayMode { return t.formatter.Mode() }

func (t *Terminal) ScrollUp() {
	t.follow = false
	t.viewport.ScrollUp(1)
}

func (t *Terminal) ScrollDown() {
	t.viewport.ScrollDown(1)
	t.follow = t.viewport.AtBottom()
}

func (t *Terminal) GotoTop() {
	t.follow = false
	t.viewport.GotoTop()
}

func (t *Terminal) GotoBottom() {
	t.follow = true
	t.viewport.GotoBottom()
}

func (t *Terminal) render() {
	t.viewport.SetContent(strings.Join(t.formatter.FormatAll(t.lines), "\n"))
	if t.follow {
		t.viewport.GotoBottom()
	}
}

// Update only forwards resize messages so the viewport does not consume
// the monitor's key bindings
func (t *Terminal) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.WindowSizeMsg); !ok {
		return nil
	}
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return cmd
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
