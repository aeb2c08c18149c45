package testing

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/getmockd/webserver/pkg/requestlog"
	"github.com/getmockd/webserver/pkg/webserver"
)

// RequestLog is a served request captured for assertions.
type RequestLog struct {
	// ID identifies the entry in the request history
	ID string
	// Method is the HTTP method (GET, POST, etc.)
	Method string
	// Path is the request URL path
	Path string
	// QueryString is the raw query string
	QueryString string
	// Headers are keyed by lowercase name
	Headers map[string]string
	// Body is the request body, truncated for large payloads
	Body string
	// Route is the pattern that handled the request, empty when none matched
	Route string
	// RouteKind is exact, prefix, unmatched or rejected
	RouteKind string
	// StatusCode is the status sent to the client
	StatusCode int
	// Error is the handler failure message, if any
	Error string
}

func newRequestLog(e *requestlog.Entry) RequestLog {
	return RequestLog{
		ID:          e.ID,
		Method:      e.Method,
		Path:        e.Path,
		QueryString: e.QueryString,
		Headers:     e.Headers,
		Body:        e.Body,
		Route:       e.Route,
		RouteKind:   e.RouteKind,
		StatusCode:  e.StatusCode,
		Error:       e.Error,
	}
}

// Header returns the value of a request header, ignoring case.
func (r *RequestLog) Header(key string) (string, bool) {
	v, ok := r.Headers[strings.ToLower(key)]
	return v, ok
}

// Query returns the parsed query parameters.
func (r *RequestLog) Query() webserver.Params {
	return webserver.ParseParams(r.QueryString)
}

// AssertJSONBody asserts that the request body matches the expected JSON.
// The expected value can be a string, []byte, or any value that will be JSON encoded.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var raw []byte
	switch v := expected.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
		raw = data
	}

	var expectedJSON, actualJSON any
	if err := json.Unmarshal(raw, &expectedJSON); err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	if err := json.Unmarshal([]byte(r.Body), &actualJSON); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		expectedBytes, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualBytes, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			string(expectedBytes), string(actualBytes))
	}
}

// AssertBody asserts that the request body exactly matches the expected string.
func (r *RequestLog) AssertBody(t testing.TB, expected string) {
	t.Helper()

	if r.Body != expected {
		t.Errorf("request body does not match\nexpected: %q\nactual: %q", expected, r.Body)
	}
}

// AssertBodyContains asserts that the request body contains the expected substring.
func (r *RequestLog) AssertBodyContains(t testing.TB, substr string) {
	t.Helper()

	if !strings.Contains(r.Body, substr) {
		t.Errorf("request body does not contain %q\nbody: %s", substr, r.Body)
	}
}

// AssertHeader asserts that the request had the specified header with the expected value.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	actual, ok := r.Header(key)
	if !ok {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertHeaderExists asserts that the request had the specified header (any value).
func (r *RequestLog) AssertHeaderExists(t testing.TB, key string) {
	t.Helper()

	if _, ok := r.Header(key); !ok {
		t.Errorf("request does not have header %q", key)
	}
}

// AssertQueryParam asserts that the first value of a query parameter matches.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()

	params := r.Query()
	if !params.Has(key) {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual := params.Get(key); actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertMethod asserts that the request used the expected HTTP method.
func (r *RequestLog) AssertMethod(t testing.TB, expected string) {
	t.Helper()

	if !strings.EqualFold(r.Method, expected) {
		t.Errorf("request method mismatch\nexpected: %q\nactual: %q", expected, r.Method)
	}
}

// AssertPath asserts that the request path matches.
func (r *RequestLog) AssertPath(t testing.TB, expected string) {
	t.Helper()

	if r.Path != expected {
		t.Errorf("request path mismatch\nexpected: %q\nactual: %q", expected, r.Path)
	}
}

// AssertStatus asserts the status code the server answered with.
func (r *RequestLog) AssertStatus(t testing.TB, expected int) {
	t.Helper()

	if r.StatusCode != expected {
		t.Errorf("status code mismatch for %s %s\nexpected: %d\nactual: %d",
			r.Method, r.Path, expected, r.StatusCode)
	}
}

// JSONField extracts a field from the request body JSON. Nested fields use
// dot notation. Returns nil if the body is not valid JSON or the field is missing.
func (r *RequestLog) JSONField(field string) any {
	var current any
	if err := json.Unmarshal([]byte(r.Body), &current); err != nil {
		return nil
	}

	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[part]
	}
	return current
}

// AssertJSONField asserts that a JSON field in the request body has the expected value.
func (r *RequestLog) AssertJSONField(t testing.TB, field string, expected any) {
	t.Helper()

	actual := r.JSONField(field)
	if actual == nil {
		t.Errorf("JSON field %q not found in request body: %s", field, r.Body)
		return
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("JSON field %q mismatch\nexpected: %v (%T)\nactual: %v (%T)",
			field, expected, expected, actual, actual)
	}
}
