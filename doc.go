// Package serial opens Linux serial ports for raw, non-blocking line relaying.
//
// Ports are configured through termios with functional options and expose
// the driver queue depths, so a single polling loop can check how much can
// be read or written without ever blocking.
//
// # Basic Usage
//
// Open a port with the default configuration (115200 8N1, no flow control,
// reads return immediately):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	if n, _ := port.Buffered(); n > 0 {
//	    buf := make([]byte, n)
//	    n, err = port.Read(buf)
//	}
//
// # Configuration Options
//
//	port, err := serial.Open("/dev/ttyUSB1",
//	    serial.WithBaudRate(115200),
//	    serial.WithFlowControl(serial.FlowControlRTSCTS),
//	    serial.WithTxBufferSize(4096),
//	    serial.WithInitialDTR(true),
//	)
//
// # Flow Control
//
// AvailableForWrite reports the transmit buffer size minus the bytes still
// queued in the driver (TIOCOUTQ). With hardware flow control a peer that
// deasserts CTS makes the queue grow and the free space shrink, which a
// caller can use to hold back writes:
//
//	if room, err := port.AvailableForWrite(); err == nil && room >= len(line) {
//	    port.Write(line)
//	}
//
// # Port Discovery
//
//	ports, err := serial.ListPorts()
//	for _, p := range ports {
//	    fmt.Printf("%s: %s\n", p, serial.Describe(p))
//	}
//
// # Error Handling
//
// Open maps common failures to sentinel errors for errors.Is:
//
//	if errors.Is(err, serial.ErrDeviceNotFound) {
//	    // no such device
//	}
package serial
