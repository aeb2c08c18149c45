package requestlog

import "time"

// Route kinds recorded in Entry.RouteKind.
const (
	RouteExact     = "exact"
	RoutePrefix    = "prefix"
	RouteUnmatched = "unmatched"
	RouteRejected  = "rejected"
)

// MaxBodySize is the number of body bytes kept in an Entry.
const MaxBodySize = 10 * 1024

// Entry captures one served request for debugging and inspection.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// Path is the decoded request path.
	Path string `json:"path"`

	// QueryString is the raw query string.
	QueryString string `json:"queryString,omitempty"`

	// Headers are the request headers keyed by lowercase name.
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the request body (truncated to MaxBodySize).
	Body string `json:"body,omitempty"`

	// BodyTruncated is set when Body was cut.
	BodyTruncated bool `json:"bodyTruncated,omitempty"`

	// RemoteAddr is the client address reported by the engine.
	RemoteAddr string `json:"remoteAddr,omitempty"`

	// Route is the path or prefix that handled the request.
	Route string `json:"route,omitempty"`

	// RouteKind is one of exact, prefix, unmatched, rejected.
	RouteKind string `json:"routeKind"`

	// StatusCode is the response status.
	StatusCode int `json:"statusCode"`

	// StatusLine is the status line including the reason phrase.
	StatusLine string `json:"statusLine,omitempty"`

	// BytesWritten is the number of body bytes handed to the engine.
	BytesWritten int64 `json:"bytesWritten"`

	// Duration is the time from arrival until the response finished.
	Duration time.Duration `json:"duration"`

	// Error describes a handler failure, if any.
	Error string `json:"error,omitempty"`
}

// TruncateBody stores body in e, cutting it to MaxBodySize.
func (e *Entry) TruncateBody(body string) {
	if len(body) > MaxBodySize {
		e.Body = body[:MaxBodySize]
		e.BodyTruncated = true
		return
	}
	e.Body = body
	e.BodyTruncated = false
}
