package relay

import "errors"

// ErrNoDevice is returned when a registry is built without a device stream
var ErrNoDevice = errors.New("relay: device stream is required")

// Registry owns every endpoint for the lifetime of the relay: the three
// static endpoints and the client slot pool
type Registry struct {
	device   *Endpoint
	console  *Endpoint
	wireless *Endpoint
	pool     *Pool
}

// NewRegistry creates the endpoint registry. console and wireless may be
// nil when that link is not configured
func NewRegistry(device, console, wireless Stream) (*Registry, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	reg := &Registry{
		device: newEndpoint(KindDevice, "device", device),
		pool:   newPool(),
	}
	if console != nil {
		reg.console = newEndpoint(KindConsole, "console", console)
	}
	if wireless != nil {
		reg.wireless = newEndpoint(KindWireless, "wireless", wireless)
	}
	return reg, nil
}

// Device returns the device endpoint
func (reg *Registry) Device() *Endpoint { return reg.device }

// Console returns the console endpoint, or nil
func (reg *Registry) Console() *Endpoint { return reg.console }

// Wireless returns the wireless endpoint, or nil
func (reg *Registry) Wireless() *Endpoint { return reg.wireless }

// Pool returns the client slot pool
func (reg *Registry) Pool() *Pool { return reg.pool }

// each calls fn for every present endpoint of the given kind
func (reg *Registry) each(kind Kind, fn func(*Endpoint)) {
	switch kind {
	case KindDevice:
		fn(reg.device)
	case KindConsole:
		if reg.console != nil {
			fn(reg.console)
		}
	case KindWireless:
		if reg.wireless != nil {
			fn(reg.wireless)
		}
	case KindClient:
		reg.pool.eachConnected(fn)
	}
}
