package relay

// Guard applies the lossy overrun policy: report the whole buffer, drop it,
// and start the next line from a clean buffer. There is no attempt to
// resynchronise on a later terminator
type Guard struct {
	diag *Diagnostics
}

// NewGuard creates a Guard reporting to diag
func NewGuard(diag *Diagnostics) *Guard {
	return &Guard{diag: diag}
}

// Recover handles an Overrun outcome of length n for ep
func (g *Guard) Recover(ep *Endpoint, n int) {
	g.diag.Overrun(ep, ep.buf[:n])
	ep.cursor = 0
}
