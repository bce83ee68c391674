package models

import (
	"bytes"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/serialrelay/internal/tui/components"
	"github.com/allbin/serialrelay/internal/tui/styles"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestMonitor(t *testing.T) (*Monitor, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	m := NewMonitor("relay:8880", &buf)
	m.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(ConnectedMsg{})
	return m, &buf
}

func TestMonitorSendsLine(t *testing.T) {
	m, buf := newTestMonitor(t)

	m.Update(runes("i"))
	require.Equal(t, InputModeInsert, m.Mode())
	m.Update(runes("PING"))
	assert.Equal(t, "PING", m.Input().Value())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Empty(t, m.Input().Value())

	lines := m.Terminal().Lines()
	last := lines[len(lines)-1]
	assert.Equal(t, components.TX, last.Dir)
	assert.Equal(t, components.StatusPending, last.Status)
	assert.Equal(t, "PING\n", string(last.Data))

	sent, ok := cmd().(SentMsg)
	require.True(t, ok)
	assert.NoError(t, sent.Err)
	assert.Equal(t, "PING\n", buf.String())

	m.Update(sent)
	lines = m.Terminal().Lines()
	assert.Equal(t, components.StatusWritten, lines[len(lines)-1].Status)

	_, tx := m.StatusBar().Counts()
	assert.Equal(t, 1, tx)
}

func TestMonitorHexSend(t *testing.T) {
	m, buf := newTestMonitor(t)

	m.Update(runes("i"))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, components.SendingModeHex, m.Input().SendingMode())

	m.Update(runes("48 69 0A"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, "Hi\n", buf.String())
}

func TestMonitorRejectsBadHex(t *testing.T) {
	m, buf := newTestMonitor(t)

	m.Update(runes("i"))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(runes("4G"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Zero(t, buf.Len())

	lines := m.Terminal().Lines()
	assert.Equal(t, components.Info, lines[len(lines)-1].Dir)
	assert.Contains(t, string(lines[len(lines)-1].Data), "invalid hex input")
}

func TestMonitorWriteError(t *testing.T) {
	m, _ := newTestMonitor(t)

	m.Update(runes("i"))
	m.Update(runes("x"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	m.Update(SentMsg{Seq: 1, Err: errors.New("broken pipe")})
	lines := m.Terminal().Lines()
	assert.Equal(t, components.StatusError, lines[len(lines)-1].Status)
}

func TestMonitorNoSendWhenDisconnected(t *testing.T) {
	m, buf := newTestMonitor(t)
	m.Update(DisconnectedMsg{Err: errors.New("reset by peer")})
	assert.Equal(t, styles.StateDisconnected, m.StatusBar().State())

	m.Update(runes("i"))
	m.Update(runes("late"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Zero(t, buf.Len())
	assert.Equal(t, "late", m.Input().Value())
}

func TestMonitorReceivesLines(t *testing.T) {
	m, _ := newTestMonitor(t)

	m.Update(components.LineMsg{Timestamp: m.now(), Data: []byte("EVENT 1\n"), Dir: components.RX})
	rx, _ := m.StatusBar().Counts()
	assert.Equal(t, 1, rx)
	assert.Contains(t, m.View(), "EVENT 1")
}

func TestMonitorModes(t *testing.T) {
	m, _ := newTestMonitor(t)

	// q types in insert mode and quits in normal mode
	m.Update(runes("i"))
	m.Update(runes("q"))
	assert.Equal(t, "q", m.Input().Value())

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, InputModeNormal, m.Mode())

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestMonitorHistory(t *testing.T) {
	m, _ := newTestMonitor(t)

	m.Update(runes("i"))
	for _, line := range []string{"first", "second"} {
		m.Update(runes(line))
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	}

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "second", m.Input().Value())
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "first", m.Input().Value())
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "second", m.Input().Value())
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Empty(t, m.Input().Value())
}

func TestMonitorDisplayToggles(t *testing.T) {
	m, _ := newTestMonitor(t)

	assert.False(t, m.Terminal().Mode().ShowHex)
	m.Update(runes("h"))
	assert.True(t, m.Terminal().Mode().ShowHex)
	m.Update(runes("a"))
	assert.False(t, m.Terminal().Mode().ShowASCII)

	m.Update(runes("c"))
	assert.Empty(t, m.Terminal().Lines())
}

func TestInputModeString(t *testing.T) {
	assert.Equal(t, "NORMAL", InputModeNormal.String())
	assert.Equal(t, "INSERT", InputModeInsert.String())
}
