package testing

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/getmockd/webserver/pkg/config"
	"github.com/getmockd/webserver/pkg/requestlog"
	"github.com/getmockd/webserver/pkg/webserver"
)

// TestServer is a test helper running a webserver on a loopback port.
// It provides a fluent API for configuring routes and assertions.
type TestServer struct {
	t       testing.TB
	server  *webserver.Server
	history *requestlog.MemoryStore

	mu      sync.Mutex
	started bool
	baseURL string
}

// New creates a new test server. It is stopped automatically when the test
// completes.
func New(t testing.TB) *TestServer {
	t.Helper()

	cfg := config.DefaultServerConfiguration()
	cfg.ShutdownTimeout = 1
	history := requestlog.NewMemoryStore(cfg.MaxLogEntries)

	s := &TestServer{
		t:       t,
		history: history,
		server:  webserver.New(cfg, webserver.WithRequestLog(history)),
	}
	t.Cleanup(s.Stop)
	return s
}

// Start starts listening on an ephemeral loopback port and returns the base
// URL. Routes may be added before or after Start.
func (s *TestServer) Start() string {
	s.t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return s.baseURL
	}
	if err := s.server.Listen("127.0.0.1:0", nil); err != nil {
		s.t.Fatalf("failed to start webserver: %v", err)
	}
	s.baseURL = s.server.URL()
	s.started = true
	return s.baseURL
}

// Stop stops the server. Calling it more than once is safe.
func (s *TestServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.server.Close(); err != nil {
		s.t.Logf("webserver shutdown: %v", err)
	}
	s.started = false
}

// URL returns the base URL of the server, or "" before Start.
func (s *TestServer) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// Handle registers h for requests to exactly path.
func (s *TestServer) Handle(path string, h webserver.HandlerFunc) {
	s.server.RegisterPath(path, h)
}

// HandlePrefix registers h for every request path starting with prefix.
func (s *TestServer) HandlePrefix(prefix string, h webserver.HandlerFunc) {
	s.server.RegisterPrefix(prefix, h)
}

// Route starts a builder for an exact-path route. An empty method accepts
// any method.
//
// Example:
//
//	srv.Route("GET", "/users/123").
//	    WithStatus(200).
//	    WithBody(`{"id": "123"}`).
//	    Reply()
func (s *TestServer) Route(method, path string) *RouteBuilder {
	return newRouteBuilder(s, method, config.RouteConfig{Path: path})
}

// Prefix starts a builder for a prefix route.
func (s *TestServer) Prefix(method, prefix string) *RouteBuilder {
	return newRouteBuilder(s, method, config.RouteConfig{Prefix: prefix})
}

// Reset removes every route and clears the request history.
func (s *TestServer) Reset() {
	for _, rt := range s.server.Routes() {
		if rt.Kind == webserver.RoutePrefix {
			s.server.RegisterPrefix(rt.Pattern, nil)
		} else {
			s.server.RegisterPath(rt.Pattern, nil)
		}
	}
	s.history.Clear()
}

// Requests returns every served request, newest first.
func (s *TestServer) Requests() []RequestLog {
	entries := s.history.List(nil)
	result := make([]RequestLog, len(entries))
	for i, e := range entries {
		result[i] = newRequestLog(e)
	}
	return result
}

// LastRequest returns the most recent request. ok is false when nothing was served.
func (s *TestServer) LastRequest() (RequestLog, bool) {
	entries := s.history.List(&requestlog.Filter{Limit: 1})
	if len(entries) == 0 {
		return RequestLog{}, false
	}
	return newRequestLog(entries[0]), true
}

// AssertCalled asserts that an endpoint was called at least once.
func (s *TestServer) AssertCalled(t testing.TB, method, path string) {
	t.Helper()

	if s.countCalls(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that an endpoint was called exactly n times.
func (s *TestServer) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()

	count := s.countCalls(method, path)
	if count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, count)
	}
}

// AssertNotCalled asserts that an endpoint was not called.
func (s *TestServer) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()

	count := s.countCalls(method, path)
	if count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, count)
	}
}

func (s *TestServer) countCalls(method, path string) int {
	count := 0
	for _, e := range s.history.List(&requestlog.Filter{Method: method}) {
		if matchesPath(e.Path, path) {
			count++
		}
	}
	return count
}

// matchesPath checks if a request path matches the expected path.
// Segments written as {name} match any value.
func matchesPath(actual, expected string) bool {
	if actual == expected {
		return true
	}

	actualParts := strings.Split(actual, "/")
	expectedParts := strings.Split(expected, "/")
	if len(actualParts) != len(expectedParts) {
		return false
	}

	for i, exp := range expectedParts {
		if strings.HasPrefix(exp, "{") && strings.HasSuffix(exp, "}") {
			continue
		}
		if exp != actualParts[i] {
			return false
		}
	}
	return true
}

// Client returns an http.Client for talking to the server.
func (s *TestServer) Client() *http.Client {
	return http.DefaultClient
}

// Server returns the underlying webserver for advanced use cases.
func (s *TestServer) Server() *webserver.Server {
	return s.server
}
