// Package relay is the line-framed multiplexer at the heart of serialrelay.
//
// One Device endpoint is authoritative. Every complete line it sends is
// broadcast to the Console, the Wireless link and each connected network
// client; every line those peers send goes to the Device and nowhere else.
//
// All state lives in a Registry that is owned by a single loop goroutine:
//
//	reg, _ := relay.NewRegistry(device, console, wireless)
//	r := relay.New(reg, relay.Options{Listeners: []relay.Listener{tcp}})
//	err := r.Run(ctx)
//
// Streams must never block. Bytes are accumulated into a fixed 2048 byte
// buffer per endpoint until a '\n' arrives; a CRLF ending is reduced to LF
// and a buffer that fills without a terminator is reported and dropped.
// Writes to the Wireless link are skipped when its transmit buffer cannot
// hold the whole line.
package relay
