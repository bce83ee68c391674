package relay

// Gate is the flow-control pre-check for the wireless link. Every other
// destination is assumed to be adequately buffered and is always permitted
type Gate struct {
	diag *Diagnostics
}

// NewGate creates a Gate reporting refusals to diag
func NewGate(diag *Diagnostics) *Gate {
	return &Gate{diag: diag}
}

// Permit reports whether a message of n bytes may be written to dst now
func (g *Gate) Permit(dst *Endpoint, n int) bool {
	if dst.kind != KindWireless {
		return true
	}
	if avail := dst.stream.AvailableForWrite(); avail < n {
		g.diag.SendBufferFull(dst, n, avail)
		return false
	}
	return true
}
