package relay

import (
	"context"
	"time"
)

// DefaultIdle is the back-off used when an iteration moved nothing
const DefaultIdle = time.Millisecond

// Options configures a Relay. The zero value is usable
type Options struct {
	// Listeners are polled for new client connections at the start of
	// every iteration, in order
	Listeners []Listener
	// Diagnostics receives the recovered-error events. nil discards them
	Diagnostics *Diagnostics
	// Metrics counts relay activity. nil disables counting
	Metrics *Metrics
	// Idle is how long Run waits after an iteration that moved no bytes
	Idle time.Duration
}

// Relay is the single control loop. It owns the registry and every buffer
// in it; nothing else may touch them while Run is active
type Relay struct {
	reg       *Registry
	listeners []Listener
	framer    *Framer
	guard     *Guard
	router    *Router
	metrics   *Metrics
	idle      time.Duration
}

// New creates a Relay over reg
func New(reg *Registry, opts Options) *Relay {
	idle := opts.Idle
	if idle <= 0 {
		idle = DefaultIdle
	}

	reg.pool.diag = opts.Diagnostics
	reg.pool.metrics = opts.Metrics

	return &Relay{
		reg:       reg,
		listeners: opts.Listeners,
		framer:    NewFramer(opts.Diagnostics),
		guard:     NewGuard(opts.Diagnostics),
		router:    NewRouter(reg, NewGate(opts.Diagnostics), opts.Metrics),
		metrics:   opts.Metrics,
		idle:      idle,
	}
}

// Registry returns the relay's endpoint registry
func (r *Relay) Registry() *Registry { return r.reg }

// Step runs one loop iteration: release dead slots, admit pending
// connections, then poll Device, Console, Wireless and each connected slot in
// index order, routing a completed line before moving on. It returns the
// number of bytes read plus connections admitted, zero meaning idle
func (r *Relay) Step() int {
	var activity int

	pool := r.reg.pool
	pool.Reap()
	for _, l := range r.listeners {
		for {
			c, ok := l.Poll()
			if !ok {
				break
			}
			pool.Admit(c)
			activity++
		}
	}

	activity += r.poll(r.reg.device)
	if r.reg.console != nil {
		activity += r.poll(r.reg.console)
	}
	if r.reg.wireless != nil {
		activity += r.poll(r.reg.wireless)
	}
	pool.eachConnected(func(ep *Endpoint) {
		activity += r.poll(ep)
	})
	return activity
}

func (r *Relay) poll(ep *Endpoint) int {
	out := r.framer.Ingest(ep)
	switch out.Status {
	case Complete:
		r.metrics.lineReceived(ep)
		r.router.Route(ep, ep.message(out.Len))
	case Overrun:
		r.guard.Recover(ep, out.Len)
	}
	return out.Read
}

// Run steps the relay until ctx is cancelled and returns ctx.Err(). Partial
// lines are abandoned and every client connection is closed on the way out
func (r *Relay) Run(ctx context.Context) error {
	defer r.reg.pool.CloseAll()

	timer := time.NewTimer(r.idle)
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Step() > 0 {
			continue
		}

		timer.Reset(r.idle)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
