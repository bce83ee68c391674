package relay

import "fmt"

const (
	// BufferSize is the capacity of every endpoint accumulation buffer. A
	// line, terminator included, must fit in BufferSize-1 bytes
	BufferSize = 2048

	// Terminator ends a line
	Terminator = '\n'
)

// Kind identifies the role an endpoint plays in the policy table
type Kind int

const (
	KindDevice Kind = iota
	KindConsole
	KindWireless
	KindClient
)

func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "device"
	case KindConsole:
		return "console"
	case KindWireless:
		return "wireless"
	case KindClient:
		return "client"
	default:
		return "unknown"
	}
}

// Stream is the non-blocking byte channel behind an endpoint.
//
// Buffered reports how many bytes ReadByte can return without blocking and
// AvailableForWrite how many bytes Write can accept without blocking. Both
// are polls; implementations must never wait
type Stream interface {
	Buffered() int
	ReadByte() (byte, error)
	AvailableForWrite() int
	Write(p []byte) (int, error)
}

// Endpoint is one line-framed channel: a stream plus the buffer and cursor
// the framer accumulates into. The buffer is an array so no two endpoints
// can ever share backing storage
type Endpoint struct {
	name   string
	kind   Kind
	stream Stream
	buf    [BufferSize]byte
	cursor int
}

func newEndpoint(kind Kind, name string, stream Stream) *Endpoint {
	return &Endpoint{name: name, kind: kind, stream: stream}
}

// Name returns the endpoint name used in diagnostics
func (e *Endpoint) Name() string { return e.name }

// Kind returns the endpoint's role
func (e *Endpoint) Kind() Kind { return e.kind }

// Cursor returns the number of bytes accumulated towards the next line
func (e *Endpoint) Cursor() int { return e.cursor }

// reset rebinds the endpoint to a new stream and drops any partial line
func (e *Endpoint) reset(stream Stream) {
	e.stream = stream
	e.cursor = 0
}

func (e *Endpoint) message(n int) []byte {
	return e.buf[:n]
}

func clientName(slot int) string {
	return fmt.Sprintf("client%d", slot)
}
