package models

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialrelay/internal/tui/components"
	"github.com/allbin/serialrelay/internal/tui/keys"
	"github.com/allbin/serialrelay/internal/tui/styles"
)

// InputMode is the vim-like editing mode
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	if m == InputModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

// ConnectedMsg reports that the link to the relay is up
type ConnectedMsg struct{}

// DisconnectedMsg reports that the relay closed the link or it failed
type DisconnectedMsg struct {
	Err error
}

// SentMsg completes a TX line
type SentMsg struct {
	Seq int
	Err error
}

// Monitor is the bubbletea model of a relay network client: lines from the
// device scroll in the terminal, lines typed in insert mode go to the
// device
type Monitor struct {
	addr string
	w    io.Writer
	now  func() time.Time

	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.MonitorKeys

	mode  InputMode
	ready bool
	seq   int
}

// NewMonitor creates a monitor writing outgoing lines to w
func NewMonitor(addr string, w io.Writer) *Monitor {
	return &Monitor{
		addr:      addr,
		w:         w,
		now:       time.Now,
		terminal:  components.NewTerminal(0, 0),
		statusBar: components.NewStatusBar(addr),
		input:     components.NewInput(),
		help:      help.New(),
		keys:      keys.NewMonitorKeys(),
	}
}

func (m *Monitor) Mode() InputMode { return m.mode }

func (m *Monitor) Terminal() *components.Terminal { return m.terminal }

func (m *Monitor) StatusBar() *components.StatusBar { return m.statusBar }

func (m *Monitor) Input() *components.Input { return m.input }

func (m *Monitor) Init() tea.Cmd {
	return nil
}

func (m *Monitor) info(format string, args ...any) {
	m.terminal.Add(components.LineMsg{
		Timestamp: m.now(),
		Data:      []byte(fmt.Sprintf(format, args...)),
		Dir:       components.Info,
	})
}

// send queues the current input for writing and returns the write command
func (m *Monitor) send() tea.Cmd {
	if m.input.Value() == "" || m.statusBar.State() != styles.StateConnected {
		return nil
	}

	payload, err := m.input.Payload()
	if err != nil {
		m.info("invalid hex input: %v", err)
		return nil
	}

	m.seq++
	seq := m.seq
	m.terminal.Add(components.LineMsg{
		Timestamp: m.now(),
		Data:      payload,
		Dir:       components.TX,
		Status:    components.StatusPending,
		Seq:       seq,
	})
	m.statusBar.CountTX()
	m.input.AddToHistory(m.input.Value())
	m.input.SetValue("")

	w := m.w
	return func() tea.Msg {
		_, err := w.Write(payload)
		return SentMsg{Seq: seq, Err: err}
	}
}

func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// input box (3) + status bar (1) + content border (1)
		m.terminal.SetSize(msg.Width, max(msg.Height-5, 1))
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.ready = true
		cmds = append(cmds, m.terminal.Update(msg))

	case ConnectedMsg:
		m.statusBar.SetConnected()
		m.info("connected to %s", m.addr)

	case DisconnectedMsg:
		m.statusBar.SetDisconnected(msg.Err)
		if msg.Err != nil {
			m.info("disconnected: %v", msg.Err)
		} else {
			m.info("disconnected")
		}

	case components.LineMsg:
		m.statusBar.CountRX()
		m.terminal.Add(msg)

	case SentMsg:
		status := components.StatusWritten
		if msg.Err != nil {
			status = components.StatusError
		}
		m.terminal.SetStatus(msg.Seq, status)

	case tea.KeyMsg:
		if m.mode == InputModeInsert {
			switch {
			case msg.Type == tea.KeyCtrlC:
				return m, tea.Quit
			case key.Matches(msg, m.keys.Escape):
				m.mode = InputModeNormal
				m.input.Blur()
				return m, nil
			case key.Matches(msg, m.keys.Enter):
				return m, m.send()
			case msg.Type == tea.KeyUp:
				m.input.NavigateHistoryUp()
				return m, nil
			case msg.Type == tea.KeyDown:
				m.input.NavigateHistoryDown()
				return m, nil
			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleSendingMode()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.InsertMode):
			m.mode = InputModeInsert
			cmds = append(cmds, m.input.Focus())
		case key.Matches(msg, m.keys.Clear):
			m.terminal.Clear()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.ToggleHex):
			m.terminal.ToggleHex()
		case key.Matches(msg, m.keys.ToggleASCII):
			m.terminal.ToggleASCII()
		case key.Matches(msg, m.keys.ToggleSendMode):
			m.input.ToggleSendingMode()
		case key.Matches(msg, m.keys.Up):
			m.terminal.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.terminal.ScrollDown()
		case key.Matches(msg, m.keys.GotoTop):
			m.terminal.GotoTop()
		case key.Matches(msg, m.keys.GotoBottom):
			m.terminal.GotoBottom()
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Monitor) View() string {
	content := "Initializing..."
	if m.ready {
		content = m.terminal.View()
	}

	parts := []string{
		styles.ContentBorderStyle.Render(content),
		m.input.View(m.mode == InputModeInsert),
	}
	if m.help.ShowAll {
		parts = append(parts, m.help.View(m.keys))
	}
	parts = append(parts, m.statusBar.Render(m.mode.String(), m.input.SendingMode(), m.now().Format("15:04:05")))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
