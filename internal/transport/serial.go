package transport

import (
	"fmt"

	serial "github.com/allbin/serialrelay"
	"github.com/allbin/serialrelay/internal/relay"
)

// SerialStream adapts an open serial port to relay.Stream
type SerialStream struct {
	port serial.Port
	*readAhead
}

var _ relay.Stream = (*SerialStream)(nil)

type portSource struct{ port serial.Port }

func (s portSource) pending() (int, error)      { return s.port.Buffered() }
func (s portSource) Read(p []byte) (int, error) { return s.port.Read(p) }

// NewSerialStream wraps port. The port must have been opened with a zero
// read timeout so reads never wait
func NewSerialStream(port serial.Port) *SerialStream {
	return &SerialStream{
		port:      port,
		readAhead: newReadAhead(portSource{port}, relay.BufferSize),
	}
}

// OpenSerial opens path with opts and wraps it
func OpenSerial(path string, opts ...serial.Option) (*SerialStream, error) {
	p, err := serial.Open(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return NewSerialStream(p), nil
}

// AvailableForWrite reports the free space in the transmit queue, or zero
// when the port cannot be queried or CTS holds transmission
func (s *SerialStream) AvailableForWrite() int {
	n, err := s.port.AvailableForWrite()
	if err != nil {
		return 0
	}
	return n
}

// Write writes p to the port
func (s *SerialStream) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Port returns the underlying port
func (s *SerialStream) Port() serial.Port { return s.port }

// Close closes the port
func (s *SerialStream) Close() error { return s.port.Close() }
