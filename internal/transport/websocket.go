package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/allbin/serialrelay/internal/relay"
)

// maxInbox caps unread WebSocket input per connection. A client that
// outruns the relay loop is disconnected
const maxInbox = 4 * relay.BufferSize

var errInboxFull = errors.New("transport: websocket inbox full")

// WSConn adapts a WebSocket connection to relay.Conn. Message boundaries are
// ignored; the payload bytes are framed on '\n' like any other stream
type WSConn struct {
	conn         *websocket.Conn
	remote       string
	writeTimeout time.Duration

	mu    sync.Mutex
	inbox bytes.Buffer

	alive     atomic.Bool
	closeOnce sync.Once
}

var _ relay.Conn = (*WSConn)(nil)

func newWSConn(conn *websocket.Conn, remote string, writeTimeout time.Duration) *WSConn {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	c := &WSConn{conn: conn, remote: remote, writeTimeout: writeTimeout}
	c.alive.Store(true)
	conn.SetReadLimit(maxInbox)
	go c.readLoop()
	return c
}

func (c *WSConn) readLoop() {
	defer c.alive.Store(false)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.mu.Lock()
		if c.inbox.Len()+len(data) > maxInbox {
			c.mu.Unlock()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseMessageTooBig, errInboxFull.Error()),
				time.Now().Add(c.writeTimeout))
			return
		}
		c.inbox.Write(data)
		c.mu.Unlock()
	}
}

// Buffered returns the number of received bytes not yet read
func (c *WSConn) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inbox.Len()
}

// ReadByte returns the next received byte
func (c *WSConn) ReadByte() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inbox.Len() == 0 {
		return 0, ErrNothingBuffered
	}
	return c.inbox.ReadByte()
}

// AvailableForWrite reports one endpoint buffer; gorilla/websocket exposes
// no queue depth and every write is bounded by a deadline instead
func (c *WSConn) AvailableForWrite() int {
	return relay.BufferSize
}

// Write sends p as a single message, text when it is valid UTF-8
func (c *WSConn) Write(p []byte) (int, error) {
	mt := websocket.BinaryMessage
	if utf8.Valid(p) {
		mt = websocket.TextMessage
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteMessage(mt, p); err != nil {
		c.alive.Store(false)
		return 0, err
	}
	return len(p), nil
}

// Alive reports whether the read side is still running
func (c *WSConn) Alive() bool { return c.alive.Load() }

// RemoteAddr returns the peer address
func (c *WSConn) RemoteAddr() string { return c.remote }

// Close closes the underlying connection
func (c *WSConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// WSListener serves WebSocket upgrades on an HTTP server and hands each
// upgraded connection to the relay loop through Poll
type WSListener struct {
	server       *http.Server
	ln           net.Listener
	upgrader     websocket.Upgrader
	log          zerolog.Logger
	writeTimeout time.Duration
	pending      chan relay.Conn
	done         chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
}

var _ relay.Listener = (*WSListener)(nil)

// ListenWebSocket binds addr and serves upgrades at path
func ListenWebSocket(ctx context.Context, addr, path string, writeTimeout time.Duration, log zerolog.Logger) (*WSListener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	l := &WSListener{
		ln: ln,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  relay.BufferSize,
			WriteBufferSize: relay.BufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:          log.With().Str("listener", "websocket").Logger(),
		writeTimeout: writeTimeout,
		pending:      make(chan relay.Conn, relay.MaxClients),
		done:         make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, l.handleUpgrade)
	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Error().Err(err).Msg("websocket server stopped")
		}
	}()
	return l, nil
}

// Addr returns the bound address
func (l *WSListener) Addr() net.Addr { return l.ln.Addr() }

func (l *WSListener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}

	c := newWSConn(conn, r.RemoteAddr, l.writeTimeout)
	select {
	case l.pending <- c:
	case <-l.done:
		_ = c.Close()
	case <-r.Context().Done():
		_ = c.Close()
	}
}

// Poll returns a pending connection without waiting
func (l *WSListener) Poll() (relay.Conn, bool) {
	select {
	case c := <-l.pending:
		return c, true
	default:
		return nil, false
	}
}

// Close shuts the HTTP server down and closes connections that were never
// polled
func (l *WSListener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err = l.server.Shutdown(ctx)
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
