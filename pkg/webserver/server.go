package webserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/getmockd/webserver/pkg/config"
	"github.com/getmockd/webserver/pkg/logging"
	"github.com/getmockd/webserver/pkg/metrics"
	"github.com/getmockd/webserver/pkg/requestlog"
)

// RouteKind identifies how a route matches request paths.
type RouteKind string

// Route kinds. Unmatched and rejected only appear in request history.
const (
	RouteExact     RouteKind = requestlog.RouteExact
	RoutePrefix    RouteKind = requestlog.RoutePrefix
	RouteUnmatched RouteKind = requestlog.RouteUnmatched
	RouteRejected  RouteKind = requestlog.RouteRejected
)

// Route describes a registered route.
type Route struct {
	Kind    RouteKind `json:"kind"`
	Pattern string    `json:"pattern"`
}

// Server is a minimal HTTP server with exact and prefix routes.
// The zero value is not usable; create servers with New.
type Server struct {
	cfg      *config.ServerConfiguration
	log      *slog.Logger
	metrics  *metrics.Collector
	requests requestlog.Logger

	routesMu sync.RWMutex
	exact    map[string]HandlerFunc
	prefixes map[string]HandlerFunc

	identity *Identity
	// bound holds the identity hosts added by Listen, removed again by Close.
	bound []string

	mu         sync.RWMutex
	httpServer *http.Server
	cancelBase context.CancelFunc
	serveDone  chan struct{}
	host       string
	port       int
	running    bool
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records traffic on the given collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithRequestLog records every served request in l.
func WithRequestLog(l requestlog.Logger) Option {
	return func(s *Server) {
		s.requests = l
	}
}

// New creates a Server with the given configuration.
// A nil cfg uses config.DefaultServerConfiguration().
func New(cfg *config.ServerConfiguration, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultServerConfiguration()
	}

	s := &Server{
		cfg:      cfg,
		log:      logging.Nop(),
		exact:    make(map[string]HandlerFunc),
		prefixes: make(map[string]HandlerFunc),
		identity: NewIdentity(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen binds addr and starts serving. addr is a bare port ("5001"), which
// binds localhost, or host:port. A non-nil fallback is registered as the
// exact handler for "/". Bind errors are returned; serving continues in the
// background until Close.
func (s *Server) Listen(addr string, fallback HandlerFunc) error {
	host, port, err := ParseAddress(addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrServerRunning
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	var bound []string
	if !isWildcardHost(host) {
		bound = append(bound, host)
		if isLoopbackHost(host) {
			bound = append(bound, loopbackAliases...)
		}
		for _, name := range bound {
			s.identity.Add(name, port)
		}
	}

	if fallback != nil {
		s.RegisterPath("/", fallback)
	}

	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeoutDuration(),
		WriteTimeout: s.cfg.WriteTimeoutDuration(),
		ErrorLog:     slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	s.httpServer = srv
	s.cancelBase = cancel
	s.serveDone = done
	s.bound = bound
	s.host = host
	s.port = port
	s.running = true

	s.log.Info("server listening", "host", host, "port", port)
	return nil
}

// ListenPort is Listen on localhost:port.
func (s *Server) ListenPort(port int, fallback HandlerFunc) error {
	return s.Listen(strconv.Itoa(port), fallback)
}

// Close stops the server. In-flight requests get ShutdownTimeout to finish;
// after that their connections are closed. Closing a stopped server returns nil.
func (s *Server) Close() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	srv, cancel, done := s.httpServer, s.cancelBase, s.serveDone
	for _, name := range s.bound {
		s.identity.Remove(name, s.port)
	}
	s.bound = nil
	s.httpServer = nil
	s.cancelBase = nil
	s.serveDone = nil
	s.host = ""
	s.port = 0
	s.running = false
	s.mu.Unlock()

	ctx, stop := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeoutDuration())
	defer stop()

	err := srv.Shutdown(ctx)
	if err != nil {
		s.log.Warn("graceful shutdown failed, closing connections", "error", err)
		cancel()
		if cerr := srv.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	cancel()
	<-done

	s.log.Info("server stopped")
	if err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// Host returns the host the server listens on, or "" when not listening.
func (s *Server) Host() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.host
}

// Port returns the bound port, or 0 when not listening.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// URL returns the base URL of the server, or "" when not listening.
// Wildcard hosts are reported as 127.0.0.1.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return ""
	}
	host := s.host
	if isWildcardHost(host) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.port))
}

// IsRunning returns whether the server is listening.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Identity returns the set of host names the server accepts. Names added by
// the caller survive Close; those added by Listen do not.
func (s *Server) Identity() *Identity {
	return s.identity
}

// RegisterPath registers h for requests whose path equals path.
// A later registration for the same path replaces the earlier one; a nil h
// removes the route.
func (s *Server) RegisterPath(path string, h HandlerFunc) {
	s.register(s.exact, RouteExact, path, h)
}

// RegisterPrefix registers h for requests whose path starts with prefix.
// A nil h removes the route.
func (s *Server) RegisterPrefix(prefix string, h HandlerFunc) {
	s.register(s.prefixes, RoutePrefix, prefix, h)
}

func (s *Server) register(table map[string]HandlerFunc, kind RouteKind, pattern string, h HandlerFunc) {
	s.routesMu.Lock()
	if h == nil {
		delete(table, pattern)
	} else {
		table[pattern] = h
	}
	n := len(table)
	s.routesMu.Unlock()

	s.metrics.SetRoutes(string(kind), n)
	if h == nil {
		s.log.Debug("route removed", "kind", kind, "pattern", pattern)
	} else {
		s.log.Debug("route registered", "kind", kind, "pattern", pattern)
	}
}

// Routes returns the registered routes, exact routes first, each kind sorted
// by pattern.
func (s *Server) Routes() []Route {
	s.routesMu.RLock()
	defer s.routesMu.RUnlock()

	routes := make([]Route, 0, len(s.exact)+len(s.prefixes))
	for pattern := range s.exact {
		routes = append(routes, Route{Kind: RouteExact, Pattern: pattern})
	}
	for pattern := range s.prefixes {
		routes = append(routes, Route{Kind: RoutePrefix, Pattern: pattern})
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Kind != routes[j].Kind {
			return routes[i].Kind == RouteExact
		}
		return routes[i].Pattern < routes[j].Pattern
	})
	return routes
}

// Match returns the route that would handle path.
func (s *Server) Match(path string) (Route, bool) {
	rt, h := s.match(path)
	return rt, h != nil
}

// match finds the handler for path: exact routes first, then the longest
// matching prefix.
func (s *Server) match(path string) (Route, HandlerFunc) {
	s.routesMu.RLock()
	defer s.routesMu.RUnlock()

	if h, ok := s.exact[path]; ok {
		return Route{Kind: RouteExact, Pattern: path}, h
	}

	var (
		best     string
		bestH    HandlerFunc
		hasMatch bool
	)
	for prefix, h := range s.prefixes {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if !hasMatch || len(prefix) > len(best) {
			best, bestH, hasMatch = prefix, h, true
		}
	}
	if !hasMatch {
		return Route{Kind: RouteUnmatched}, nil
	}
	return Route{Kind: RoutePrefix, Pattern: best}, bestH
}

// ServeHTTP dispatches a request to its route. It makes a Server usable as
// an http.Handler under any engine, e.g. httptest.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.identity.Accepts(r.Host) {
		start := time.Now()
		s.log.Debug("rejected request for unknown host", "host", r.Host, "path", r.URL.Path)
		http.Error(w, StatusText(http.StatusBadRequest), http.StatusBadRequest)
		s.record(r, nil, Route{Kind: RouteRejected}, http.StatusBadRequest, 0, start, "")
		return
	}

	rt, h := s.match(r.URL.Path)
	if h == nil {
		start := time.Now()
		http.NotFound(w, r)
		s.record(r, nil, rt, http.StatusNotFound, 0, start, "")
		return
	}

	s.serveRoute(w, r, rt, h)
}

// ParseAddress splits a listen address into host and port. A bare port
// means localhost; ":port" means all interfaces.
func ParseAddress(addr string) (string, int, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", 0, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}

	host, portStr := "localhost", addr
	if strings.Contains(addr, ":") {
		var err error
		host, portStr, err = net.SplitHostPort(addr)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
		}
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w: %q: bad port", ErrInvalidAddress, addr)
	}
	return host, port, nil
}

func isWildcardHost(host string) bool {
	switch host {
	case "", "0.0.0.0", "::":
		return true
	}
	return false
}

func isLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// lowerHeaders returns the request headers keyed by lowercase name, the last
// value winning for repeated headers.
func lowerHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, len(r.Header)+1)
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[len(values)-1]
		}
	}
	// The engine lifts Host out of the header map.
	if r.Host != "" {
		headers["host"] = r.Host
	}
	return headers
}
