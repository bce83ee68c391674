package relay

import (
	"github.com/rs/zerolog"
)

// Diagnostics reports the locally recovered relay events. Each event is one
// human-readable log line tagged with the endpoint it concerns; the relay
// binary points the logger at the console endpoint.
//
// A nil *Diagnostics discards everything
type Diagnostics struct {
	log     zerolog.Logger
	metrics *Metrics
}

// NewDiagnostics creates Diagnostics writing to log and counting into m,
// which may be nil
func NewDiagnostics(log zerolog.Logger, m *Metrics) *Diagnostics {
	return &Diagnostics{log: log, metrics: m}
}

// TrimmedCRLF records that a CRLF terminated line from ep was normalized
func (d *Diagnostics) TrimmedCRLF(ep *Endpoint) {
	if d == nil {
		return
	}
	d.metrics.crlfTrimmed(ep)
	d.log.Info().Str("endpoint", ep.name).Msg("trimmed CRLF")
}

// Overrun records a discarded buffer together with its full contents
func (d *Diagnostics) Overrun(ep *Endpoint, content []byte) {
	if d == nil {
		return
	}
	d.metrics.overrun(ep)
	d.log.Warn().
		Str("endpoint", ep.name).
		Int("len", len(content)).
		Bytes("buffer", content).
		Msg("buffer overrun, discarding")
}

// SendBufferFull records a message of n bytes skipped for ep
func (d *Diagnostics) SendBufferFull(ep *Endpoint, n, avail int) {
	if d == nil {
		return
	}
	d.metrics.flowBlocked(ep)
	d.log.Warn().
		Str("endpoint", ep.name).
		Int("len", n).
		Int("available", avail).
		Msg("send buffer full")
}

// ClientConnected records a connection placed into slot
func (d *Diagnostics) ClientConnected(ep *Endpoint, slot int, remote string) {
	if d == nil {
		return
	}
	d.log.Info().
		Str("endpoint", ep.name).
		Int("slot", slot).
		Str("remote", remote).
		Msg("client connected")
}

// TooManyClients records a connection closed because every slot is taken
func (d *Diagnostics) TooManyClients(remote string) {
	if d == nil {
		return
	}
	d.log.Warn().
		Str("endpoint", "listener").
		Str("remote", remote).
		Int("max", MaxClients).
		Msg("too many clients, connection rejected")
}
