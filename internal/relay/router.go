package relay

// policy is the star topology: the device broadcasts to every peer, every
// peer talks to the device only. Destinations are visited in this order
var policy = [...][]Kind{
	KindDevice:   {KindConsole, KindWireless, KindClient},
	KindConsole:  {KindDevice},
	KindWireless: {KindDevice},
	KindClient:   {KindDevice},
}

// Destinations returns the policy row for a source kind
func Destinations(source Kind) []Kind {
	if source < 0 || int(source) >= len(policy) {
		return nil
	}
	return policy[source]
}

// Router forwards complete lines along the policy table
type Router struct {
	reg     *Registry
	gate    *Gate
	metrics *Metrics
}

// NewRouter creates a Router over the endpoints in reg
func NewRouter(reg *Registry, gate *Gate, m *Metrics) *Router {
	return &Router{reg: reg, gate: gate, metrics: m}
}

// Route writes msg once to every destination of src. A failed write to one
// destination does not stop the others, and nothing is retried
func (r *Router) Route(src *Endpoint, msg []byte) {
	for _, kind := range Destinations(src.kind) {
		r.reg.each(kind, func(dst *Endpoint) {
			r.forward(dst, msg)
		})
	}
}

func (r *Router) forward(dst *Endpoint, msg []byte) {
	if !r.gate.Permit(dst, len(msg)) {
		return
	}
	n, err := dst.stream.Write(msg)
	if err != nil || n != len(msg) {
		r.metrics.forwardError(dst)
		return
	}
	r.metrics.lineForwarded(dst)
}
