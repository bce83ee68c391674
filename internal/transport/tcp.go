package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/allbin/serialrelay/internal/relay"
)

// DefaultWriteTimeout bounds a single write to a network client so a stalled
// peer cannot hold up the relay loop
const DefaultWriteTimeout = 100 * time.Millisecond

// TCPConn adapts an accepted TCP connection to relay.Conn
type TCPConn struct {
	*readAhead
	conn         *net.TCPConn
	rc           syscall.RawConn
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

var _ relay.Conn = (*TCPConn)(nil)

type socketSource struct {
	conn net.Conn
	rc   syscall.RawConn
}

func (s socketSource) pending() (int, error)      { return ioctlInt(s.rc, unix.TIOCINQ) }
func (s socketSource) Read(p []byte) (int, error) { return s.conn.Read(p) }

// NewTCPConn wraps conn. A non-positive writeTimeout selects
// DefaultWriteTimeout
func NewTCPConn(conn *net.TCPConn, writeTimeout time.Duration) (*TCPConn, error) {
	rc, err := conn.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("raw conn: %w", err)
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	_ = conn.SetNoDelay(true)
	return &TCPConn{
		readAhead:    newReadAhead(socketSource{conn: conn, rc: rc}, relay.BufferSize),
		conn:         conn,
		rc:           rc,
		writeTimeout: writeTimeout,
	}, nil
}

// Alive reports false once the peer has shut down, reset the connection or
// a read has failed
func (c *TCPConn) Alive() bool {
	if c.Err() != nil {
		return false
	}
	return !peerClosed(c.rc)
}

// AvailableForWrite returns the free space in the socket send buffer
func (c *TCPConn) AvailableForWrite() int {
	room, err := socketRoom(c.rc)
	if err != nil {
		return 0
	}
	return room
}

// Write writes p under the connection's write deadline
func (c *TCPConn) Write(p []byte) (int, error) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.Write(p)
}

// RemoteAddr returns the peer address
func (c *TCPConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close closes the connection. It is safe to call more than once
func (c *TCPConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// TCPListener accepts connections on a background goroutine and hands them
// to the relay loop through Poll
type TCPListener struct {
	ln           *net.TCPListener
	log          zerolog.Logger
	writeTimeout time.Duration
	pending      chan relay.Conn
	done         chan struct{}
	wg           sync.WaitGroup
	closeOnce    sync.Once
}

var _ relay.Listener = (*TCPListener)(nil)

// ListenTCP binds addr and starts accepting
func ListenTCP(ctx context.Context, addr string, writeTimeout time.Duration, log zerolog.Logger) (*TCPListener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	l := &TCPListener{
		ln:           ln.(*net.TCPListener),
		log:          log.With().Str("listener", "tcp").Logger(),
		writeTimeout: writeTimeout,
		pending:      make(chan relay.Conn, relay.MaxClients),
		done:         make(chan struct{}),
	}
	l.wg.Add(1)
	go l.acceptLoop()
	return l, nil
}

// Addr returns the bound address
func (l *TCPListener) Addr() net.Addr { return l.ln.Addr() }

// Port returns the bound TCP port
func (l *TCPListener) Port() int { return l.ln.Addr().(*net.TCPAddr).Port }

// Poll returns a pending connection without waiting
func (l *TCPListener) Poll() (relay.Conn, bool) {
	select {
	case c := <-l.pending:
		return c, true
	default:
		return nil, false
	}
}

func (l *TCPListener) acceptLoop() {
	defer l.wg.Done()

	var delay time.Duration
	for {
		conn, err := l.ln.AcceptTCP()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// Back off on resource exhaustion
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else if delay *= 2; delay > time.Second {
				delay = time.Second
			}
			l.log.Error().Err(err).Dur("retry_in", delay).Msg("accept failed")
			select {
			case <-time.After(delay):
				continue
			case <-l.done:
				return
			}
		}
		delay = 0

		c, err := NewTCPConn(conn, l.writeTimeout)
		if err != nil {
			l.log.Error().Err(err).Msg("wrap connection")
			_ = conn.Close()
			continue
		}

		select {
		case l.pending <- c:
		case <-l.done:
			_ = c.Close()
			return
		}
	}
}

// Close stops accepting and closes connections that were never polled
func (l *TCPListener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.ln.Close()
		l.wg.Wait()
		for {
			select {
			case c := <-l.pending:
				_ = c.Close()
			default:
				return
			}
		}
	})
	return err
}
