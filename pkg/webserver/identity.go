package webserver

import (
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// loopbackAliases are accepted alongside a loopback listen host.
var loopbackAliases = []string{"localhost", "127.0.0.1", "::1"}

// defaultHTTPPort is assumed for Host headers without a port.
const defaultHTTPPort = 80

// Identity is the set of host:port names a server answers to. An empty
// identity accepts every Host header.
type Identity struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// NewIdentity returns an empty identity.
func NewIdentity() *Identity {
	return &Identity{names: make(map[string]struct{})}
}

// Add accepts host:port.
func (id *Identity) Add(host string, port int) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.names[identityKey(host, port)] = struct{}{}
}

// Remove stops accepting host:port.
func (id *Identity) Remove(host string, port int) {
	id.mu.Lock()
	defer id.mu.Unlock()
	delete(id.names, identityKey(host, port))
}

// Has reports whether host:port is accepted explicitly.
func (id *Identity) Has(host string, port int) bool {
	id.mu.RLock()
	defer id.mu.RUnlock()
	_, ok := id.names[identityKey(host, port)]
	return ok
}

// Reset removes every name.
func (id *Identity) Reset() {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.names = make(map[string]struct{})
}

// Names returns the accepted names in sorted order.
func (id *Identity) Names() []string {
	id.mu.RLock()
	defer id.mu.RUnlock()
	names := make([]string, 0, len(id.names))
	for name := range id.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Accepts reports whether a request with the given Host header is served.
// An empty Host header (HTTP/1.0) is served as if it named the listen
// address, and a Host header without a port means port 80.
func (id *Identity) Accepts(hostHeader string) bool {
	id.mu.RLock()
	defer id.mu.RUnlock()

	if len(id.names) == 0 || hostHeader == "" {
		return true
	}
	host, port, ok := splitHostHeader(hostHeader)
	if !ok {
		return false
	}
	_, ok = id.names[identityKey(host, port)]
	return ok
}

// splitHostHeader splits a Host header value, defaulting the port to 80.
func splitHostHeader(hostHeader string) (string, int, bool) {
	host, portStr, err := net.SplitHostPort(hostHeader)
	if err != nil {
		// Without a port only a bare name or a bracketed IPv6 literal is valid.
		if strings.Contains(hostHeader, ":") && !strings.HasPrefix(hostHeader, "[") {
			return "", 0, false
		}
		return hostHeader, defaultHTTPPort, true
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, false
	}
	return host, port, true
}

func identityKey(host string, port int) string {
	host = strings.ToLower(strings.Trim(host, "[]"))
	return net.JoinHostPort(host, strconv.Itoa(port))
}
