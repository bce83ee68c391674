package relay

// MaxClients is the fixed number of network client slots
const MaxClients = 4

// Conn is an accepted network connection as the pool sees it: a Stream
// with its own liveness predicate
type Conn interface {
	Stream
	// Alive reports whether the peer is still connected. It must not block
	Alive() bool
	Close() error
	RemoteAddr() string
}

// Listener hands out pending connections without blocking
type Listener interface {
	Poll() (Conn, bool)
}

// SlotState is the lifecycle state of a client slot
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotConnected
)

func (s SlotState) String() string {
	if s == SlotConnected {
		return "connected"
	}
	return "empty"
}

// Slot is one reusable client endpoint
type Slot struct {
	state SlotState
	conn  Conn
	ep    Endpoint
}

// Pool manages the fixed array of client slots
type Pool struct {
	slots   [MaxClients]Slot
	diag    *Diagnostics
	metrics *Metrics
}

func newPool() *Pool {
	p := &Pool{}
	for i := range p.slots {
		p.slots[i].ep = Endpoint{name: clientName(i), kind: KindClient}
	}
	return p
}

// Admit places c in the first empty slot. With every slot taken the
// connection is closed straight away so it does not linger in the backlog
func (p *Pool) Admit(c Conn) (int, bool) {
	for i := range p.slots {
		s := &p.slots[i]
		if s.state != SlotEmpty {
			continue
		}
		s.state = SlotConnected
		s.conn = c
		s.ep.reset(c)
		p.metrics.clientAccepted()
		p.diag.ClientConnected(&s.ep, i, c.RemoteAddr())
		return i, true
	}

	remote := c.RemoteAddr()
	_ = c.Close()
	p.metrics.clientRejected()
	p.diag.TooManyClients(remote)
	return -1, false
}

// Reap returns every connected slot whose connection is no longer alive to
// the empty state. Partial lines are dropped with it
func (p *Pool) Reap() int {
	var reaped int
	for i := range p.slots {
		s := &p.slots[i]
		if s.state != SlotConnected || s.conn.Alive() {
			continue
		}
		_ = s.conn.Close()
		s.state = SlotEmpty
		s.conn = nil
		s.ep.reset(nil)
		p.metrics.clientDropped()
		reaped++
	}
	return reaped
}

// State returns the state of slot i
func (p *Pool) State(i int) SlotState {
	return p.slots[i].state
}

// Connected returns the number of connected slots
func (p *Pool) Connected() int {
	var n int
	for i := range p.slots {
		if p.slots[i].state == SlotConnected {
			n++
		}
	}
	return n
}

// Endpoint returns the endpoint of slot i
func (p *Pool) Endpoint(i int) *Endpoint {
	return &p.slots[i].ep
}

// eachConnected calls fn for every connected slot in index order
func (p *Pool) eachConnected(fn func(*Endpoint)) {
	for i := range p.slots {
		if p.slots[i].state == SlotConnected {
			fn(&p.slots[i].ep)
		}
	}
}

// CloseAll closes every connection and empties the pool
func (p *Pool) CloseAll() {
	for i := range p.slots {
		s := &p.slots[i]
		if s.state == SlotConnected {
			_ = s.conn.Close()
			p.metrics.clientClosed()
		}
		s.state = SlotEmpty
		s.conn = nil
		s.ep.reset(nil)
	}
}
