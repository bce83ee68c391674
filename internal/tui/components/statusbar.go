package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialrelay/internal/tui/styles"
)

// StatusBar is the bottom line: mode, relay address, link state, counters
// and clock
type StatusBar struct {
	addr  string
	state styles.ConnState
	err   error
	width int
	rx    int
	tx    int
}

func NewStatusBar(addr string) *StatusBar {
	return &StatusBar{addr: addr, state: styles.StateConnecting}
}

func (sb *StatusBar) SetWidth(width int) { sb.width = width }

func (sb *StatusBar) SetConnected() {
	sb.state = styles.StateConnected
	sb.err = nil
}

func (sb *StatusBar) SetDisconnected(err error) {
	sb.state = styles.StateDisconnected
	sb.err = err
}

func (sb *StatusBar) State() styles.ConnState { return sb.state }

func (sb *StatusBar) Err() error { return sb.err }

func (sb *StatusBar) CountRX() { sb.rx++ }

func (sb *StatusBar) CountTX() { sb.tx++ }

func (sb *StatusBar) Counts() (rx, tx int) { return sb.rx, sb.tx }

// Render draws the bar for the given input mode ("NORMAL" or "INSERT")
func (sb *StatusBar) Render(inputMode string, sending SendingMode, clock string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeBG := styles.Blue
	if inputMode == "INSERT" {
		modeBG = styles.Green
	}
	mode := lipgloss.NewStyle().
		Foreground(styles.Base).
		Background(modeBG).
		Bold(true).
		Padding(0, 1).
		Render(inputMode)

	addr := lipgloss.NewStyle().
		Foreground(styles.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.addr)

	divider := lipgloss.NewStyle().
		Foreground(styles.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{mode, addr, styles.Indicator(sb.state)}
	if inputMode == "INSERT" {
		left = append(left, lipgloss.NewStyle().
			Foreground(styles.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sending)))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	info := fmt.Sprintf("⇣ %d ⇡ %d", sb.rx, sb.tx)
	if sb.err != nil {
		info = styles.ErrorStyle.Render(sb.err.Error())
	}
	details := lipgloss.NewStyle().Foreground(styles.Subtext0).Padding(0, 1).Render(info)
	clockView := lipgloss.NewStyle().Foreground(styles.Subtext1).Padding(0, 1).Render(clock)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clockView)

	spacer := lipgloss.NewStyle().
		Width(max(width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide), 1)).
		Render("")

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
