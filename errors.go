package serial

import "errors"

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound     = errors.New("serial device not found")
	ErrPermissionDenied   = errors.New("permission denied accessing serial device")
	ErrDeviceInUse        = errors.New("serial device already in use")
	ErrInvalidBaudRate    = errors.New("invalid baud rate")
	ErrInvalidConfig      = errors.New("invalid serial configuration")
	ErrInvalidFlowControl = errors.New("invalid flow control mode")
	ErrPortClosed         = errors.New("serial port is closed")
)
