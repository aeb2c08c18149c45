package webserver

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Request is the normalized view of an incoming request.
// It is built once per request and not modified afterwards.
type Request struct {
	// Method is the uppercase HTTP verb.
	Method string `json:"method"`

	// URL is Path followed by "?" and QueryString when a query is present.
	URL string `json:"url"`

	// HTTPVersion is the protocol version, e.g. "1.1".
	HTTPVersion string `json:"httpVersion"`

	// Headers maps lowercase header names to their last value.
	Headers map[string]string `json:"headers"`

	// Path is the decoded URL path.
	Path string `json:"path"`

	// QueryString is the raw, undecoded query string.
	QueryString string `json:"queryString"`

	// Get holds the parsed query parameters. Never nil.
	Get Params `json:"get"`

	// Post is the decoded body; nil unless Method is POST or PUT.
	Post *Payload `json:"post"`

	// PostRaw is the body as text; nil unless Method is POST or PUT.
	PostRaw *string `json:"postRaw"`
}

// NewRequest builds a Request from an engine request, reading the body of
// POST and PUT requests.
func NewRequest(r *http.Request) (*Request, error) {
	req := &Request{
		Method:      strings.ToUpper(r.Method),
		Path:        r.URL.Path,
		URL:         r.URL.Path,
		HTTPVersion: strconv.Itoa(r.ProtoMajor) + "." + strconv.Itoa(r.ProtoMinor),
		Headers:     lowerHeaders(r),
		QueryString: r.URL.RawQuery,
	}
	if req.QueryString != "" {
		req.URL += "?" + req.QueryString
	}

	req.Get = ParseParams(req.QueryString)

	if req.Method == http.MethodPost || req.Method == http.MethodPut {
		var data []byte
		if r.Body != nil {
			var err error
			data, err = io.ReadAll(r.Body)
			if err != nil {
				return nil, fmt.Errorf("reading request body: %w", err)
			}
		}

		raw := string(data)
		req.PostRaw = &raw
		if raw != "" && isFormContent(req.Headers["content-type"]) {
			req.Post = &Payload{Form: ParseParams(raw)}
		} else {
			req.Post = &Payload{Text: raw}
		}
	}

	return req, nil
}

// Header returns the value of the named header, ignoring case.
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// HasBody reports whether the request carried a POST or PUT body.
func (r *Request) HasBody() bool {
	return r.PostRaw != nil
}

// Body returns the raw body text, or "" when there is none.
func (r *Request) Body() string {
	if r.PostRaw == nil {
		return ""
	}
	return *r.PostRaw
}
