package transport

import (
	"errors"
	"io"
)

// ErrNothingBuffered is returned by ReadByte when no input is waiting
var ErrNothingBuffered = errors.New("transport: no input buffered")

// source is the minimal non-blocking input a stream is built on: pending
// reports what the kernel holds, read must not block when pending > 0
type source interface {
	pending() (int, error)
	io.Reader
}

// readAhead batches kernel reads so ReadByte costs a slice index instead of
// a syscall. Its capacity matches one endpoint buffer
type readAhead struct {
	src  source
	buf  []byte
	r, w int
	err  error
}

func newReadAhead(src source, size int) *readAhead {
	return &readAhead{src: src, buf: make([]byte, size)}
}

// Buffered returns the bytes held locally plus the bytes the kernel holds.
// Errors from the pending query count as nothing available
func (ra *readAhead) Buffered() int {
	n := ra.w - ra.r
	if ra.err != nil {
		return n
	}
	k, err := ra.src.pending()
	if err != nil || k < 0 {
		return n
	}
	return n + k
}

// ReadByte returns the next byte, refilling from the kernel only when the
// local buffer is empty and input is pending
func (ra *readAhead) ReadByte() (byte, error) {
	if ra.r == ra.w {
		if err := ra.fill(); err != nil {
			return 0, err
		}
	}
	b := ra.buf[ra.r]
	ra.r++
	return b, nil
}

func (ra *readAhead) fill() error {
	if ra.err != nil {
		return ra.err
	}
	k, err := ra.src.pending()
	if err != nil {
		return err
	}
	if k <= 0 {
		return ErrNothingBuffered
	}
	if k > len(ra.buf) {
		k = len(ra.buf)
	}
	n, err := ra.src.Read(ra.buf[:k])
	ra.r, ra.w = 0, n
	if err != nil {
		ra.err = err
	}
	if n == 0 {
		if err != nil {
			return err
		}
		return ErrNothingBuffered
	}
	return nil
}

// Err returns the sticky read error, if any
func (ra *readAhead) Err() error { return ra.err }
