package transport

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/serialrelay/internal/relay"
)

const waitFor = 2 * time.Second

func listenTCP(t *testing.T) *TCPListener {
	t.Helper()
	l, err := ListenTCP(context.Background(), "127.0.0.1:0", 0, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func pollConn(t *testing.T, l relay.Listener) relay.Conn {
	t.Helper()
	var c relay.Conn
	require.Eventually(t, func() bool {
		var ok bool
		c, ok = l.Poll()
		return ok
	}, waitFor, 5*time.Millisecond)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func drain(t *testing.T, s relay.Stream, n int) string {
	t.Helper()
	require.Eventually(t, func() bool { return s.Buffered() >= n }, waitFor, 5*time.Millisecond)
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		b, err := s.ReadByte()
		require.NoError(t, err)
		out = append(out, b)
	}
	return string(out)
}

func TestTCPListenerPollEmpty(t *testing.T) {
	l := listenTCP(t)
	c, ok := l.Poll()
	assert.False(t, ok)
	assert.Nil(t, c)
	assert.NotZero(t, l.Port())
}

func TestTCPConnExchange(t *testing.T) {
	l := listenTCP(t)

	client, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	conn := pollConn(t, l)
	assert.True(t, conn.Alive())
	assert.Equal(t, client.LocalAddr().String(), conn.RemoteAddr())
	assert.Zero(t, conn.Buffered())

	_, err = client.Write([]byte("PING\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "PING\r\n", drain(t, conn, 6))

	assert.Positive(t, conn.AvailableForWrite())
	n, err := conn.Write([]byte("PONG\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	line, err := bufio.NewReader(client).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "PONG\n", line)
}

func TestTCPConnAliveWithUnreadData(t *testing.T) {
	l := listenTCP(t)

	client, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	conn := pollConn(t, l)
	_, err = client.Write([]byte("queued"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return conn.Buffered() == 6 }, waitFor, 5*time.Millisecond)

	// Peeking must not consume anything
	assert.True(t, conn.Alive())
	assert.Equal(t, 6, conn.Buffered())
}

func TestTCPConnDetectsPeerClose(t *testing.T) {
	l := listenTCP(t)

	client, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)

	conn := pollConn(t, l)
	require.True(t, conn.Alive())

	require.NoError(t, client.Close())
	require.Eventually(t, func() bool { return !conn.Alive() }, waitFor, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
}

func TestTCPListenerCloseDropsPending(t *testing.T) {
	l, err := ListenTCP(context.Background(), "127.0.0.1:0", 0, zerolog.Nop())
	require.NoError(t, err)

	client, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return len(l.pending) == 1 }, waitFor, 5*time.Millisecond)
	require.NoError(t, l.Close())

	// The never-polled connection was closed, so the client sees EOF
	_ = client.SetReadDeadline(time.Now().Add(waitFor))
	_, err = client.Read(make([]byte, 1))
	assert.Error(t, err)

	_, ok := l.Poll()
	assert.False(t, ok)
}

func TestListenTCPBadAddress(t *testing.T) {
	_, err := ListenTCP(context.Background(), "256.0.0.1:0", 0, zerolog.Nop())
	assert.Error(t, err)
}
