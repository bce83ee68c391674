package serial

import (
	"fmt"
	"strings"
	"time"
)

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone   FlowControl = iota
	FlowControlCTS                // CTS is sampled before reporting write capacity
	FlowControlRTSCTS             // kernel CRTSCTS handshake
)

func (fc FlowControl) String() string {
	switch fc {
	case FlowControlNone:
		return "none"
	case FlowControlCTS:
		return "cts"
	case FlowControlRTSCTS:
		return "rtscts"
	default:
		return "unknown"
	}
}

// ParseFlowControl converts a flag or config value (none, cts, rtscts) to a FlowControl
func ParseFlowControl(s string) (FlowControl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FlowControlNone, nil
	case "cts":
		return FlowControlCTS, nil
	case "rtscts", "rts/cts":
		return FlowControlRTSCTS, nil
	default:
		return FlowControlNone, fmt.Errorf("%w: %q (valid: none, cts, rtscts)", ErrInvalidFlowControl, s)
	}
}

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// Config holds the configuration for a serial port
type Config struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	FlowControl FlowControl
	// ReadTimeout maps to VTIME; zero makes reads return immediately, which
	// is what a polling relay wants
	ReadTimeout time.Duration
	// TxBufferSize is the size of the driver transmit queue, used to turn
	// TIOCOUTQ into a free-space figure
	TxBufferSize int
	InitialRTS   *bool
	InitialDTR   *bool
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:     115200,
		DataBits:     8,
		StopBits:     1,
		Parity:       ParityNone,
		FlowControl:  FlowControlNone,
		ReadTimeout:  0,
		TxBufferSize: 4096,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		c.Parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		if fc < FlowControlNone || fc > FlowControlRTSCTS {
			return ErrInvalidFlowControl
		}
		c.FlowControl = fc
		return nil
	}
}

// WithReadTimeout sets VTIME. The kernel counts in tenths of a second, so
// the timeout must be a multiple of 100ms between 0 and 25.5s
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout > 25500*time.Millisecond || timeout%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithTxBufferSize sets the transmit queue size used by AvailableForWrite
func WithTxBufferSize(size int) Option {
	return func(c *Config) error {
		if size <= 0 {
			return ErrInvalidConfig
		}
		c.TxBufferSize = size
		return nil
	}
}

// WithInitialRTS sets the RTS line right after the port is opened
func WithInitialRTS(state bool) Option {
	return func(c *Config) error {
		c.InitialRTS = &state
		return nil
	}
}

// WithInitialDTR sets the DTR line right after the port is opened
func WithInitialDTR(state bool) Option {
	return func(c *Config) error {
		c.InitialDTR = &state
		return nil
	}
}
