// Package tui is the interactive relay client.
package tui

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/serialrelay/internal/tui/components"
	"github.com/allbin/serialrelay/internal/tui/models"
)

// maxLine matches the relay's endpoint buffer; longer input is shown in
// pieces
const maxLine = 2048

// RunMonitor runs the monitor over conn until the user quits or ctx ends.
// conn is closed on return
func RunMonitor(ctx context.Context, addr string, conn net.Conn) error {
	defer conn.Close()

	m := models.NewMonitor(addr, conn)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		p.Send(models.ConnectedMsg{})
		err := ReadLines(conn, func(line []byte) {
			p.Send(components.LineMsg{Timestamp: time.Now(), Data: line, Dir: components.RX})
		})
		p.Send(models.DisconnectedMsg{Err: err})
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// ReadLines calls fn with every '\n' terminated line read from r, terminator
// included. A line longer than the relay buffer is delivered in chunks. It
// returns nil on a clean EOF
func ReadLines(r io.Reader, fn func([]byte)) error {
	br := bufio.NewReaderSize(r, maxLine)
	for {
		line, err := br.ReadSlice('\n')
		if len(line) > 0 {
			fn(append([]byte(nil), line...))
		}
		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
}
