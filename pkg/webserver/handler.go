package webserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getmockd/webserver/pkg/metrics"
	"github.com/getmockd/webserver/pkg/requestlog"
)

// errorBodyPrefix starts the body of responses to failed handlers.
// The spelling is kept for existing consumers that match on it.
const errorBodyPrefix = "An error occured: "

// HandlerFunc handles one request. Returning a non-nil error, or panicking
// with any value, answers with a 500 error response.
type HandlerFunc func(req *Request, res *Response) error

// serveRoute runs the handler of a matched route.
func (s *Server) serveRoute(w http.ResponseWriter, r *http.Request, rt Route, h HandlerFunc) {
	start := time.Now()

	if s.cfg.MaxBodySize > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize)
	}

	req, err := NewRequest(r)
	if err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		s.log.Warn("failed to read request", "path", r.URL.Path, "route", rt.Pattern, "error", err)
		http.Error(w, StatusText(status), status)
		s.record(r, nil, rt, status, 0, start, err.Error())
		return
	}

	res := newResponse(w)
	failure, panicked := invoke(h, req, res)

	var failureText string
	if failure != nil {
		failureText = describe(failure)
		kind := metrics.FailureError
		if panicked {
			kind = metrics.FailurePanic
		}
		s.metrics.HandlerFailure(rt.Pattern, kind)
		s.log.Warn("handler failed", "route", rt.Pattern, "path", req.Path, "kind", kind, "error", failureText)

		if !res.fail(failure) {
			s.log.Debug("failure could not be reported to client", "route", rt.Pattern, "path", req.Path)
		}
	}

	select {
	case <-res.Done():
	case <-r.Context().Done():
		res.abort()
		s.log.Debug("request ended before response was closed", "route", rt.Pattern, "path", req.Path)
	}

	s.record(r, req, rt, res.StatusCode(), res.BytesWritten(), start, failureText)
}

// invoke calls h and returns the returned error or the recovered panic value.
func invoke(h HandlerFunc, req *Request, res *Response) (failure any, panicked bool) {
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value, compared by identity
				panic(v)
			}
			failure, panicked = v, true
		}
	}()

	if err := h(req, res); err != nil {
		return err, false
	}
	return nil, false
}

// describe renders a failure value as text.
func describe(v any) string {
	switch e := v.(type) {
	case error:
		return e.Error()
	case string:
		return e
	case fmt.Stringer:
		return e.String()
	default:
		return fmt.Sprint(v)
	}
}

func errorBody(failure any) string {
	return errorBodyPrefix + describe(failure)
}

// record feeds the request history and the metrics.
func (s *Server) record(r *http.Request, req *Request, rt Route, status int, written int64, start time.Time, failure string) {
	elapsed := time.Since(start)
	label := rt.Pattern
	if rt.Kind == RouteUnmatched || rt.Kind == RouteRejected {
		label = string(rt.Kind)
	}
	s.metrics.ObserveRequest(r.Method, label, status, elapsed)

	if s.requests == nil {
		return
	}

	entry := &requestlog.Entry{
		Timestamp:    start,
		Method:       r.Method,
		Path:         r.URL.Path,
		QueryString:  r.URL.RawQuery,
		RemoteAddr:   r.RemoteAddr,
		Route:        rt.Pattern,
		RouteKind:    string(rt.Kind),
		StatusCode:   status,
		StatusLine:   StatusLine(status),
		BytesWritten: written,
		Duration:     elapsed,
		Error:        failure,
	}
	if req != nil {
		entry.Headers = req.Headers
		entry.TruncateBody(req.Body())
	} else {
		entry.Headers = lowerHeaders(r)
	}
	s.requests.Log(entry)
}
