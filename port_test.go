package serial

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// openPTY allocates a pseudo terminal pair and returns the master side and
// the path of the slave, which behaves like a serial device for termios
func openPTY(t *testing.T) (*os.File, string) {
	t.Helper()

	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		t.Skipf("pty not available: %v", err)
	}
	t.Cleanup(func() { master.Close() })

	fd := int(master.Fd())
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		t.Skipf("unlockpt failed: %v", err)
	}
	n, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	if err != nil {
		t.Skipf("ptsname failed: %v", err)
	}
	return master, fmt.Sprintf("/dev/pts/%d", n)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 115200 {
		t.Errorf("Expected BaudRate 115200, got %d", config.BaudRate)
	}
	if config.DataBits != 8 {
		t.Errorf("Expected DataBits 8, got %d", config.DataBits)
	}
	if config.StopBits != 1 {
		t.Errorf("Expected StopBits 1, got %d", config.StopBits)
	}
	if config.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", config.Parity)
	}
	if config.FlowControl != FlowControlNone {
		t.Errorf("Expected FlowControl None, got %v", config.FlowControl)
	}
	if config.ReadTimeout != 0 {
		t.Errorf("Expected non-blocking reads by default, got %v", config.ReadTimeout)
	}
	if config.TxBufferSize != 4096 {
		t.Errorf("Expected TxBufferSize 4096, got %d", config.TxBufferSize)
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()

	if err := WithBaudRate(9600)(&config); err != nil {
		t.Errorf("WithBaudRate failed: %v", err)
	}
	if config.BaudRate != 9600 {
		t.Errorf("Expected BaudRate 9600, got %d", config.BaudRate)
	}

	if err := WithDataBits(7)(&config); err != nil {
		t.Errorf("WithDataBits failed: %v", err)
	}
	if config.DataBits != 7 {
		t.Errorf("Expected DataBits 7, got %d", config.DataBits)
	}

	if err := WithStopBits(2)(&config); err != nil {
		t.Errorf("WithStopBits failed: %v", err)
	}
	if config.StopBits != 2 {
		t.Errorf("Expected StopBits 2, got %d", config.StopBits)
	}

	if err := WithParity(ParityEven)(&config); err != nil {
		t.Errorf("WithParity failed: %v", err)
	}
	if config.Parity != ParityEven {
		t.Errorf("Expected Parity Even, got %v", config.Parity)
	}

	if err := WithFlowControl(FlowControlRTSCTS)(&config); err != nil {
		t.Errorf("WithFlowControl failed: %v", err)
	}
	if config.FlowControl != FlowControlRTSCTS {
		t.Errorf("Expected FlowControl RTSCTS, got %v", config.FlowControl)
	}

	if err := WithInitialRTS(true)(&config); err != nil {
		t.Errorf("WithInitialRTS failed: %v", err)
	}
	if config.InitialRTS == nil || !*config.InitialRTS {
		t.Errorf("Expected InitialRTS true, got %v", config.InitialRTS)
	}
}

func TestInvalidBaudRate(t *testing.T) {
	config := DefaultConfig()
	err := WithBaudRate(123456)(&config)
	if !errors.Is(err, ErrInvalidBaudRate) {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
	if ValidBaudRate(123456) {
		t.Error("ValidBaudRate(123456) = true, want false")
	}
	if !ValidBaudRate(115200) {
		t.Error("ValidBaudRate(115200) = false, want true")
	}
}

func TestInvalidDataBits(t *testing.T) {
	config := DefaultConfig()
	if err := WithDataBits(9)(&config); err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidStopBits(t *testing.T) {
	config := DefaultConfig()
	if err := WithStopBits(3)(&config); err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestGetBaudRate(t *testing.T) {
	tests := []struct {
		input    int
		hasError bool
	}{
		{115200, false},
		{9600, false},
		{57600, false},
		{921600, false},
		{123456, true},
	}

	for _, test := range tests {
		result, err := getBaudRate(test.input)
		if test.hasError {
			if err != ErrInvalidBaudRate {
				t.Errorf("Expected ErrInvalidBaudRate for %d, got %v", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for baud rate %d: %v", test.input, err)
		}
		if result == 0 {
			t.Errorf("Got zero result for valid baud rate %d", test.input)
		}
	}
}

func TestFreeSpace(t *testing.T) {
	tests := []struct {
		size, queued, want int
	}{
		{4096, 0, 4096},
		{4096, 96, 4000},
		{4096, 4096, 0},
		{4096, 5000, 0},
	}

	for _, tt := range tests {
		if got := freeSpace(tt.size, tt.queued); got != tt.want {
			t.Errorf("freeSpace(%d, %d) = %d, want %d", tt.size, tt.queued, got, tt.want)
		}
	}
}

func TestOpenNonExistentDevice(t *testing.T) {
	_, err := Open("/dev/nonexistent")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestOpenRejectsInvalidOption(t *testing.T) {
	_, err := Open("/dev/null", WithBaudRate(42))
	if !errors.Is(err, ErrInvalidBaudRate) {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
}

func TestPortBufferedReportsPendingInput(t *testing.T) {
	master, slave := openPTY(t)

	p, err := Open(slave)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", slave, err)
	}
	defer p.Close()

	if p.Path() != slave {
		t.Errorf("Path() = %s, want %s", p.Path(), slave)
	}

	if _, err := master.Write([]byte("PING\n")); err != nil {
		t.Fatalf("write to master failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var n int
	for time.Now().Before(deadline) {
		n, err = p.Buffered()
		if err != nil {
			t.Fatalf("Buffered failed: %v", err)
		}
		if n == 5 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n != 5 {
		t.Fatalf("Buffered() = %d, want 5", n)
	}

	buf := make([]byte, 16)
	got, err := p.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf[:got]) != "PING\n" {
		t.Errorf("Read = %q, want %q", buf[:got], "PING\n")
	}

	// VMIN=0/VTIME=0: an empty queue must not block
	got, err = p.Read(buf)
	if err != nil || got != 0 {
		t.Errorf("Read on empty queue = (%d, %v), want (0, nil)", got, err)
	}
}

func TestPortAvailableForWrite(t *testing.T) {
	_, slave := openPTY(t)

	p, err := Open(slave, WithTxBufferSize(1024))
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", slave, err)
	}
	defer p.Close()

	free, err := p.AvailableForWrite()
	if err != nil {
		t.Fatalf("AvailableForWrite failed: %v", err)
	}
	if free <= 0 || free > 1024 {
		t.Errorf("AvailableForWrite() = %d, want within (0, 1024]", free)
	}
}

func TestClosedPort(t *testing.T) {
	_, slave := openPTY(t)

	p, err := Open(slave)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", slave, err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := p.Close(); err != ErrPortClosed {
		t.Errorf("second Close = %v, want ErrPortClosed", err)
	}
	if _, err := p.Buffered(); err != ErrPortClosed {
		t.Errorf("Buffered after Close = %v, want ErrPortClosed", err)
	}
	if _, err := p.Write([]byte("x")); err != ErrPortClosed {
		t.Errorf("Write after Close = %v, want ErrPortClosed", err)
	}
}

func TestPortFlushInput(t *testing.T) {
	master, slave := openPTY(t)

	p, err := Open(slave)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", slave, err)
	}
	defer p.Close()

	if _, err := master.Write([]byte("STALE\n")); err != nil {
		t.Fatalf("write to master failed: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if n, _ := p.Buffered(); n == 6 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := p.FlushInput(); err != nil {
		t.Fatalf("FlushInput failed: %v", err)
	}
	if n, err := p.Buffered(); err != nil || n != 0 {
		t.Errorf("Buffered after FlushInput = (%d, %v), want (0, nil)", n, err)
	}
}
