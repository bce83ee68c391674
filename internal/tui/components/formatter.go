package components

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialrelay/internal/tui/styles"
)

// Direction tells where a displayed line came from
type Direction int

const (
	RX Direction = iota
	TX
	Info
)

// TX status values
const (
	StatusPending = "PENDING"
	StatusWritten = "WRITTEN"
	StatusError   = "ERROR"
)

// LineMsg is one line shown in the terminal
type LineMsg struct {
	Timestamp time.Time
	Data      []byte
	Dir       Direction
	// Status is set for TX lines only
	Status string
	// Seq identifies a TX line so its status can be updated later
	Seq int
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type Formatter struct {
	mode DisplayMode
}

func NewFormatter(showHex, showASCII bool) *Formatter {
	return &Formatter{mode: DisplayMode{ShowHex: showHex, ShowASCII: showASCII}}
}

func (f *Formatter) Mode() DisplayMode { return f.mode }

func (f *Formatter) ToggleHex() { f.mode.ShowHex = !f.mode.ShowHex }

func (f *Formatter) ToggleASCII() { f.mode.ShowASCII = !f.mode.ShowASCII }

func (f *Formatter) indicator(msg LineMsg) string {
	switch msg.Dir {
	case TX:
		color, text := styles.Peach, "TX"
		switch msg.Status {
		case StatusPending:
			color, text = styles.Yellow, "TX ○"
		case StatusWritten:
			color, text = styles.Green, "TX ✓"
		case StatusError:
			color, text = styles.Red, "TX ✗"
		}
		return lipgloss.NewStyle().Foreground(color).Bold(true).Render("↗ " + text)
	case Info:
		return lipgloss.NewStyle().Foreground(styles.Overlay0).Render("• --")
	default:
		return lipgloss.NewStyle().Foreground(styles.Sky).Bold(true).Render("↙ RX")
	}
}

// Format renders msg as one terminal line. The line terminator is not
// shown in the ASCII column
func (f *Formatter) Format(msg LineMsg) string {
	ts := styles.TimestampStyle.Render("[" + msg.Timestamp.Format("15:04:05.000") + "]")

	if msg.Dir == Info {
		return fmt.Sprintf("%s %s: %s", ts, f.indicator(msg), styles.InfoStyle.Render(string(msg.Data)))
	}

	var parts []string
	if f.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", msg.Data))
	}
	if f.mode.ShowASCII {
		parts = append(parts, "ASCII: "+Printable(trimTerminator(msg.Data)))
	}
	if !f.mode.ShowHex && !f.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
	}
	return fmt.Sprintf("%s %s: %s", ts, f.indicator(msg), strings.Join(parts, "  "))
}

func (f *Formatter) FormatAll(msgs []LineMsg) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = f.Format(m)
	}
	return out
}

// Printable replaces every byte outside printable ASCII with '.'
func Printable(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		if b >= 32 && b <= 126 {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

func trimTerminator(data []byte) []byte {
	if n := len(data); n > 0 && data[n-1] == '\n' {
		return data[:n-1]
	}
	return data
}

// ParseHex converts "48 65 6C" or "48656C" to bytes
func ParseHex(s string) ([]byte, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if clean == "" {
		return nil, fmt.Errorf("empty input")
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even number of digits (got %d)", len(clean))
	}

	out := make([]byte, 0, len(clean)/2)
	for i := 0; i < len(clean); i += 2 {
		b, err := strconv.ParseUint(clean[i:i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte '%s'", clean[i:i+2])
		}
		out = append(out, byte(b))
	}
	return out, nil
}
