package relay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var errFakeWrite = errors.New("fake write failure")

// fakeStream is an in-memory Stream. Input is queued with feed, every
// Write is recorded separately so duplicate deliveries are visible
type fakeStream struct {
	in       []byte
	writes   [][]byte
	room     int
	writeErr error
}

func newFakeStream() *fakeStream {
	return &fakeStream{room: 1 << 16}
}

func (s *fakeStream) feed(data string) { s.in = append(s.in, data...) }

func (s *fakeStream) Buffered() int { return len(s.in) }

func (s *fakeStream) ReadByte() (byte, error) {
	if len(s.in) == 0 {
		return 0, errors.New("fake stream empty")
	}
	b := s.in[0]
	s.in = s.in[1:]
	return b, nil
}

func (s *fakeStream) AvailableForWrite() int { return s.room }

func (s *fakeStream) Write(p []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.writes = append(s.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (s *fakeStream) received() []string {
	out := make([]string, 0, len(s.writes))
	for _, w := range s.writes {
		out = append(out, string(w))
	}
	return out
}

type fakeConn struct {
	*fakeStream
	remote string
	dead   bool
	closed int
}

func newFakeConn(remote string) *fakeConn {
	return &fakeConn{fakeStream: newFakeStream(), remote: remote}
}

func (c *fakeConn) Alive() bool        { return !c.dead }
func (c *fakeConn) Close() error       { c.closed++; return nil }
func (c *fakeConn) RemoteAddr() string { return c.remote }

type fakeListener struct {
	pending []Conn
}

func (l *fakeListener) Poll() (Conn, bool) {
	if len(l.pending) == 0 {
		return nil, false
	}
	c := l.pending[0]
	l.pending = l.pending[1:]
	return c, true
}

// diagEvent is one decoded diagnostics line
type diagEvent struct {
	Level    string `json:"level"`
	Message  string `json:"message"`
	Endpoint string `json:"endpoint"`
	Buffer   string `json:"buffer"`
	Slot     *int   `json:"slot"`
	Len      int    `json:"len"`
}

// diagSink captures diagnostics as JSON lines
type diagSink struct {
	buf bytes.Buffer
}

func (s *diagSink) diagnostics(m *Metrics) *Diagnostics {
	return NewDiagnostics(zerolog.New(&s.buf), m)
}

func (s *diagSink) events(t *testing.T) []diagEvent {
	t.Helper()
	var events []diagEvent
	sc := bufio.NewScanner(bytes.NewReader(s.buf.Bytes()))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var ev diagEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	return events
}

func (s *diagSink) count(t *testing.T, msg string) int {
	t.Helper()
	var n int
	for _, ev := range s.events(t) {
		if ev.Message == msg {
			n++
		}
	}
	return n
}

// rig is a relay wired to fake streams with one fake listener
type rig struct {
	device   *fakeStream
	console  *fakeStream
	wireless *fakeStream
	listener *fakeListener
	sink     *diagSink
	relay    *Relay
}

func newRig(t *testing.T, m *Metrics) *rig {
	t.Helper()
	rg := &rig{
		device:   newFakeStream(),
		console:  newFakeStream(),
		wireless: newFakeStream(),
		listener: &fakeListener{},
		sink:     &diagSink{},
	}
	reg, err := NewRegistry(rg.device, rg.console, rg.wireless)
	require.NoError(t, err)
	rg.relay = New(reg, Options{
		Listeners:   []Listener{rg.listener},
		Diagnostics: rg.sink.diagnostics(m),
		Metrics:     m,
	})
	return rg
}

// connect admits n fresh clients and returns them in slot order
func (rg *rig) connect(t *testing.T, n int) []*fakeConn {
	t.Helper()
	conns := make([]*fakeConn, n)
	for i := range conns {
		conns[i] = newFakeConn(fmt.Sprintf("10.0.0.%d:5000", i+1))
		rg.listener.pending = append(rg.listener.pending, conns[i])
	}
	rg.relay.Step()
	return conns
}
