package relay

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the relay's Prometheus collectors. Labels carry endpoint
// kinds, never client addresses, so cardinality stays fixed.
//
// A nil *Metrics is valid and records nothing
type Metrics struct {
	linesReceived   *prometheus.CounterVec
	linesForwarded  *prometheus.CounterVec
	forwardErrors   *prometheus.CounterVec
	crlfTrimmedVec  *prometheus.CounterVec
	overruns        *prometheus.CounterVec
	flowBlockedVec  *prometheus.CounterVec
	clientsAccepted prometheus.Counter
	clientsRejected prometheus.Counter
	clientsDropped  prometheus.Counter
	clientsActive   prometheus.Gauge
}

// NewMetrics creates and registers the relay metrics. A nil registerer
// returns nil metrics
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	counterVec := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "serialrelay",
			Subsystem: "relay",
			Name:      name,
			Help:      help,
		}, []string{"endpoint"})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "serialrelay",
			Subsystem: "clients",
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		linesReceived:   counterVec("lines_received_total", "Complete lines framed per source endpoint kind"),
		linesForwarded:  counterVec("lines_forwarded_total", "Lines written per destination endpoint kind"),
		forwardErrors:   counterVec("forward_errors_total", "Failed or short writes per destination endpoint kind"),
		crlfTrimmedVec:  counterVec("crlf_trimmed_total", "CRLF terminated lines normalized per source endpoint kind"),
		overruns:        counterVec("overruns_total", "Buffers discarded without a terminator per endpoint kind"),
		flowBlockedVec:  counterVec("flow_blocked_total", "Forwards skipped by the flow-control gate"),
		clientsAccepted: counter("accepted_total", "Connections placed into a client slot"),
		clientsRejected: counter("rejected_total", "Connections closed because every slot was taken"),
		clientsDropped:  counter("disconnected_total", "Client slots released after a failed liveness check"),
		clientsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "serialrelay",
			Subsystem: "clients",
			Name:      "connected",
			Help:      "Client slots currently connected",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.linesReceived, m.linesForwarded, m.forwardErrors, m.crlfTrimmedVec,
		m.overruns, m.flowBlockedVec, m.clientsAccepted, m.clientsRejected,
		m.clientsDropped, m.clientsActive,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) lineReceived(ep *Endpoint) {
	if m != nil {
		m.linesReceived.WithLabelValues(ep.kind.String()).Inc()
	}
}

func (m *Metrics) lineForwarded(ep *Endpoint) {
	if m != nil {
		m.linesForwarded.WithLabelValues(ep.kind.String()).Inc()
	}
}

func (m *Metrics) forwardError(ep *Endpoint) {
	if m != nil {
		m.forwardErrors.WithLabelValues(ep.kind.String()).Inc()
	}
}

func (m *Metrics) crlfTrimmed(ep *Endpoint) {
	if m != nil {
		m.crlfTrimmedVec.WithLabelValues(ep.kind.String()).Inc()
	}
}

func (m *Metrics) overrun(ep *Endpoint) {
	if m != nil {
		m.overruns.WithLabelValues(ep.kind.String()).Inc()
	}
}

func (m *Metrics) flowBlocked(ep *Endpoint) {
	if m != nil {
		m.flowBlockedVec.WithLabelValues(ep.kind.String()).Inc()
	}
}

func (m *Metrics) clientAccepted() {
	if m != nil {
		m.clientsAccepted.Inc()
		m.clientsActive.Inc()
	}
}

func (m *Metrics) clientRejected() {
	if m != nil {
		m.clientsRejected.Inc()
	}
}

func (m *Metrics) clientDropped() {
	if m != nil {
		m.clientsDropped.Inc()
		m.clientsActive.Dec()
	}
}

// clientClosed releases a slot on shutdown. It is not counted as a drop
func (m *Metrics) clientClosed() {
	if m != nil {
		m.clientsActive.Dec()
	}
}
