package transport

import (
	"fmt"
	"os"
	"syscall"

	"github.com/allbin/serialrelay/internal/relay"
	"golang.org/x/sys/unix"
)

// FileStream is a console made of an input and an output file, normally
// the process's stdin and stdout
type FileStream struct {
	*readAhead
	out   *os.File
	outRC syscall.RawConn
}

var _ relay.Stream = (*FileStream)(nil)

type fileSource struct {
	f  *os.File
	rc syscall.RawConn
}

func (s fileSource) pending() (int, error)      { return ioctlInt(s.rc, unix.TIOCINQ) }
func (s fileSource) Read(p []byte) (int, error) { return s.f.Read(p) }

// NewFileStream creates a stream reading from in and writing to out
func NewFileStream(in, out *os.File) (*FileStream, error) {
	inRC, err := in.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("console input: %w", err)
	}
	outRC, err := out.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("console output: %w", err)
	}
	return &FileStream{
		readAhead: newReadAhead(fileSource{f: in, rc: inRC}, relay.BufferSize),
		out:       out,
		outRC:     outRC,
	}, nil
}

// Stdio returns the process's stdin and stdout as a console stream
func Stdio() (*FileStream, error) {
	return NewFileStream(os.Stdin, os.Stdout)
}

// AvailableForWrite reports the free pipe capacity when out is a pipe and
// one endpoint buffer otherwise
func (s *FileStream) AvailableForWrite() int {
	if room, err := pipeRoom(s.outRC); err == nil {
		return room
	}
	return relay.BufferSize
}

// Write writes p to the output file
func (s *FileStream) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// Close does nothing; in and out belong to the caller
func (s *FileStream) Close() error { return nil }
