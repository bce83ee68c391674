package relay

// Status is the result class of one accumulation step
type Status int

const (
	// Pending means no line is complete yet; the partial line is kept
	Pending Status = iota
	// Complete means a terminator was appended
	Complete
	// Overrun means the buffer filled without a terminator
	Overrun
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Complete:
		return "complete"
	case Overrun:
		return "overrun"
	default:
		return "unknown"
	}
}

// Outcome is what Ingest reports for one endpoint poll
type Outcome struct {
	Status Status
	// Len is the message length for Complete, terminator included
	Len int
	// Read is the number of bytes consumed from the stream by this call
	Read int
}

// Accumulate appends b at cursor and returns the next cursor together with
// the outcome. Complete and Overrun both hand back a zero cursor; the bytes
// stay in buf until the next append overwrites them.
//
// buf must be at least BufferSize long and cursor below BufferSize-1
func Accumulate(buf []byte, cursor int, b byte) (int, Outcome) {
	buf[cursor] = b
	cursor++
	if b == Terminator {
		return 0, Outcome{Status: Complete, Len: cursor}
	}
	if cursor >= BufferSize-1 {
		return 0, Outcome{Status: Overrun, Len: cursor}
	}
	return cursor, Outcome{Status: Pending}
}

// trimCR drops the carriage return of a CRLF terminated line in place and
// returns the new length
func trimCR(line []byte) (int, bool) {
	n := len(line)
	if n >= 2 && line[n-2] == '\r' && line[n-1] == Terminator {
		line[n-2] = Terminator
		return n - 1, true
	}
	return n, false
}

// Framer turns the bytes available on an endpoint into complete lines
type Framer struct {
	diag *Diagnostics
}

// NewFramer creates a Framer reporting CRLF trims to diag
func NewFramer(diag *Diagnostics) *Framer {
	return &Framer{diag: diag}
}

// Ingest reads what the endpoint's stream has available right now, stopping
// as soon as a line completes or the buffer overruns
func (f *Framer) Ingest(ep *Endpoint) Outcome {
	var read int
	for avail := ep.stream.Buffered(); avail > 0; avail-- {
		b, err := ep.stream.ReadByte()
		if err != nil {
			break
		}
		read++

		var out Outcome
		ep.cursor, out = Accumulate(ep.buf[:], ep.cursor, b)
		out.Read = read
		switch out.Status {
		case Complete:
			if n, trimmed := trimCR(ep.buf[:out.Len]); trimmed {
				out.Len = n
				f.diag.TrimmedCRLF(ep)
			}
			return out
		case Overrun:
			return out
		}
	}
	return Outcome{Status: Pending, Read: read}
}
