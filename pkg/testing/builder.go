package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/getmockd/webserver/pkg/config"
	"github.com/getmockd/webserver/pkg/httputil"
	"github.com/getmockd/webserver/pkg/routes"
	"github.com/getmockd/webserver/pkg/webserver"
)

// RouteBuilder builds a route using a fluent API.
type RouteBuilder struct {
	server *TestServer
	method string
	route  config.RouteConfig
	delay  time.Duration
	times  int   // 0 means unlimited
	err    error // First error encountered during building
}

func newRouteBuilder(s *TestServer, method string, rc config.RouteConfig) *RouteBuilder {
	return &RouteBuilder{
		server: s,
		method: strings.ToUpper(method),
		route:  rc,
	}
}

// setError records the first error encountered during building.
func (b *RouteBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *RouteBuilder) Err() error {
	return b.err
}

// WithStatus sets the HTTP response status code.
// Default is 200 (OK).
func (b *RouteBuilder) WithStatus(status int) *RouteBuilder {
	b.route.Status = status
	return b
}

// WithBody sets the response body.
// Values other than string and []byte are JSON encoded.
func (b *RouteBuilder) WithBody(body any) *RouteBuilder {
	switch v := body.(type) {
	case string:
		b.route.Body = v
	case []byte:
		b.route.Body = string(v)
	default:
		return b.WithJSON(v)
	}
	b.route.JSON = nil
	return b
}

// WithJSON sets the response body as JSON.
// Content-Type defaults to application/json.
func (b *RouteBuilder) WithJSON(body any) *RouteBuilder {
	data, err := json.Marshal(body)
	if err != nil {
		b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
		return b
	}
	b.route.JSON = json.RawMessage(data)
	b.route.Body = ""
	return b
}

// WithHeader adds a response header.
func (b *RouteBuilder) WithHeader(key, value string) *RouteBuilder {
	if b.route.Headers == nil {
		b.route.Headers = make(map[string]string)
	}
	b.route.Headers[key] = value
	return b
}

// WithHeaders sets multiple response headers at once.
func (b *RouteBuilder) WithHeaders(headers map[string]string) *RouteBuilder {
	for k, v := range headers {
		b.WithHeader(k, v)
	}
	return b
}

// WithEncoding converts the body to the named charset before writing it.
func (b *RouteBuilder) WithEncoding(name string) *RouteBuilder {
	b.route.Encoding = name
	return b
}

// WithError makes the route fail with msg, answered as a 500.
func (b *RouteBuilder) WithError(msg string) *RouteBuilder {
	b.route.Error = msg
	return b
}

// Echo answers with the request serialized as JSON.
func (b *RouteBuilder) Echo() *RouteBuilder {
	b.route.Echo = true
	return b
}

// WithDelay delays the response.
// Accepts duration strings like "100ms", "1s", "500ms".
func (b *RouteBuilder) WithDelay(delay string) *RouteBuilder {
	d, err := time.ParseDuration(delay)
	if err != nil {
		b.setError(fmt.Errorf("WithDelay: invalid duration %q: %w", delay, err))
		return b
	}
	b.delay = d
	return b
}

// WithDelayMs delays the response by delayMs milliseconds.
func (b *RouteBuilder) WithDelayMs(delayMs int) *RouteBuilder {
	b.delay = time.Duration(delayMs) * time.Millisecond
	return b
}

// Times sets how many times this route answers.
// After n requests, subsequent requests get 404.
// Use 0 for unlimited (default).
func (b *RouteBuilder) Times(n int) *RouteBuilder {
	b.times = n
	return b
}

// Once is a convenience method for Times(1).
func (b *RouteBuilder) Once() *RouteBuilder {
	return b.Times(1)
}

// Twice is a convenience method for Times(2).
func (b *RouteBuilder) Twice() *RouteBuilder {
	return b.Times(2)
}

// Handler returns the handler the builder would register.
func (b *RouteBuilder) Handler() (webserver.HandlerFunc, error) {
	if b.err != nil {
		return nil, b.err
	}

	h, err := routes.Handler(b.route)
	if err != nil {
		return nil, err
	}

	if b.delay > 0 {
		h = delayed(b.delay, h)
	}
	if b.times > 0 {
		h = limited(b.times, h)
	}
	if b.method != "" {
		h = methodOnly(b.method, h)
	}
	return h, nil
}

// Build registers the route. Build errors fail the test.
// Returns the TestServer for method chaining if needed.
func (b *RouteBuilder) Build() *TestServer {
	b.server.t.Helper()

	h, err := b.Handler()
	if err != nil {
		b.server.t.Fatalf("route %s %s: %v", b.method, b.route.Pattern(), err)
		return b.server
	}

	if b.route.IsPrefix() {
		b.server.HandlePrefix(b.route.Prefix, h)
	} else {
		b.server.Handle(b.route.Path, h)
	}
	return b.server
}

// Reply is an alias for Build.
// More readable in fluent chains:
//
//	srv.Route("GET", "/api").WithStatus(200).Reply()
func (b *RouteBuilder) Reply() {
	b.server.t.Helper()
	b.Build()
}

// RespondWith is a shorthand for setting status and body together.
func (b *RouteBuilder) RespondWith(status int, body any) *RouteBuilder {
	return b.WithStatus(status).WithBody(body)
}

// RespondJSON is a shorthand for JSON response with status 200.
func (b *RouteBuilder) RespondJSON(body any) *RouteBuilder {
	return b.WithStatus(http.StatusOK).WithJSON(body)
}

// RespondNotFound configures a 404 Not Found response.
func (b *RouteBuilder) RespondNotFound() *RouteBuilder {
	return b.WithStatus(http.StatusNotFound).WithJSON(map[string]string{
		"error": "not_found",
	})
}

// RespondBadRequest configures a 400 Bad Request response.
func (b *RouteBuilder) RespondBadRequest(message string) *RouteBuilder {
	return b.WithStatus(http.StatusBadRequest).WithJSON(map[string]string{
		"error": message,
	})
}

// RespondServerError configures a 500 Internal Server Error response.
func (b *RouteBuilder) RespondServerError(message string) *RouteBuilder {
	return b.WithStatus(http.StatusInternalServerError).WithJSON(map[string]string{
		"error": message,
	})
}

// RespondCreated configures a 201 Created response.
func (b *RouteBuilder) RespondCreated(body any) *RouteBuilder {
	return b.WithStatus(http.StatusCreated).WithJSON(body)
}

// RespondNoContent configures a 204 No Content response.
func (b *RouteBuilder) RespondNoContent() *RouteBuilder {
	return b.WithStatus(http.StatusNoContent)
}

func delayed(d time.Duration, h webserver.HandlerFunc) webserver.HandlerFunc {
	return func(req *webserver.Request, res *webserver.Response) error {
		time.Sleep(d)
		return h(req, res)
	}
}

func limited(n int, h webserver.HandlerFunc) webserver.HandlerFunc {
	var served atomic.Int64
	return func(req *webserver.Request, res *webserver.Response) error {
		if served.Add(1) > int64(n) {
			return httputil.WriteNotFound(res, "not_found", "route exhausted")
		}
		return h(req, res)
	}
}

func methodOnly(method string, h webserver.HandlerFunc) webserver.HandlerFunc {
	return func(req *webserver.Request, res *webserver.Response) error {
		if req.Method != method {
			return httputil.WriteMethodNotAllowed(res, method)
		}
		return h(req, res)
	}
}
