// Package advertise announces a running relay over mDNS and finds relays
// announced by others.
package advertise

import (
	"context"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/enbility/zeroconf/v3"
)

const (
	// ServiceType is the DNS-SD service type of the TCP client listener
	ServiceType = "_serialrelay._tcp"
	// Domain is the mDNS domain
	Domain = "local."

	maxInstanceNameLen = 63
)

// Info describes what is announced
type Info struct {
	Instance      string
	Port          int
	Version       string
	MaxClients    int
	WebSocketPort int
	WebSocketPath string
}

// TXT returns the TXT record strings for info
func (info Info) TXT() []string {
	txt := []string{"max_clients=" + strconv.Itoa(info.MaxClients)}
	if info.Version != "" {
		txt = append(txt, "version="+info.Version)
	}
	if info.WebSocketPort > 0 {
		txt = append(txt,
			"ws_port="+strconv.Itoa(info.WebSocketPort),
			"ws_path="+info.WebSocketPath,
		)
	}
	return txt
}

// InstanceName returns configured, or "serialrelay-<hostname>" when it is
// empty, cut to the DNS label limit
func InstanceName(configured string) string {
	name := configured
	if name == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "unknown"
		}
		if i := strings.IndexByte(host, '.'); i > 0 {
			host = host[:i]
		}
		name = "serialrelay-" + host
	}
	if len(name) > maxInstanceNameLen {
		name = name[:maxInstanceNameLen]
	}
	return name
}

// Advertiser holds a registered service until Shutdown
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers info on every multicast-capable interface
func Advertise(info Info) (*Advertiser, error) {
	server, err := zeroconf.Register(
		InstanceName(info.Instance),
		ServiceType,
		Domain,
		info.Port,
		info.TXT(),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", ServiceType, err)
	}
	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the announcement
func (a *Advertiser) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Relay is a discovered relay
type Relay struct {
	Instance string
	Host     string
	Port     int
	Addrs    []net.IP
	Text     map[string]string
}

// Addr returns a dialable host:port, preferring the first IPv4 address
func (r Relay) Addr() string {
	host := strings.TrimSuffix(r.Host, ".")
	for _, ip := range r.Addrs {
		if ip.To4() != nil {
			host = ip.String()
			break
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(r.Port))
}

// Discover browses until ctx is done and returns the relays seen, sorted by
// instance name. Repeated announcements of one instance are merged
func Discover(ctx context.Context) ([]Relay, error) {
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	browseErr := make(chan error, 1)
	go func() {
		browseErr <- zeroconf.Browse(ctx, ServiceType, Domain, entries, removed)
	}()

	found := make(map[string]*Relay)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			addrs := append(append([]net.IP(nil), entry.AddrIPv4...), entry.AddrIPv6...)
			r := newRelay(entry.Instance, entry.HostName, entry.Port, entry.Text, addrs)
			if existing, ok := found[r.Instance]; ok {
				existing.Addrs = mergeIPs(existing.Addrs, r.Addrs)
				continue
			}
			found[r.Instance] = &r
		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			delete(found, entry.Instance)
		case err := <-browseErr:
			if err != nil && ctx.Err() == nil {
				return nil, fmt.Errorf("browse %s: %w", ServiceType, err)
			}
			browseErr = nil
		case <-ctx.Done():
			return collect(found), nil
		}
	}
}

func newRelay(instance, host string, port int, text []string, addrs []net.IP) Relay {
	return Relay{
		Instance: instance,
		Host:     host,
		Port:     port,
		Addrs:    addrs,
		Text:     parseTXT(text),
	}
}

func parseTXT(text []string) map[string]string {
	m := make(map[string]string, len(text))
	for _, kv := range text {
		k, v, _ := strings.Cut(kv, "=")
		if k != "" {
			m[k] = v
		}
	}
	return m
}

func mergeIPs(a, b []net.IP) []net.IP {
	for _, ip := range b {
		dup := false
		for _, have := range a {
			if have.Equal(ip) {
				dup = true
				break
			}
		}
		if !dup {
			a = append(a, ip)
		}
	}
	return a
}

func collect(found map[string]*Relay) []Relay {
	out := make([]Relay, 0, len(found))
	for _, r := range found {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out
}
