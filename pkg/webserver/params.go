package webserver

import (
	"encoding/json"
	"net/url"
	"strings"
)

// FormContentType is the media type whose bodies are decoded into Params.
const FormContentType = "application/x-www-form-urlencoded"

// Params holds decoded form or query parameters. Repeated keys keep their
// values in order of appearance.
type Params map[string][]string

// ParseParams decodes an application/x-www-form-urlencoded string.
// Pairs that cannot be decoded are skipped. The result is never nil.
func ParseParams(raw string) Params {
	values, _ := url.ParseQuery(raw)
	if values == nil {
		return Params{}
	}
	return Params(values)
}

// Get returns the first value for key, or "" when absent.
func (p Params) Get(key string) string {
	if vs := p[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Values returns every value for key.
func (p Params) Values(key string) []string {
	return p[key]
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// MarshalJSON encodes single values as strings and repeated keys as arrays.
func (p Params) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p))
	for key, values := range p {
		if len(values) == 1 {
			out[key] = values[0]
		} else {
			out[key] = values
		}
	}
	return json.Marshal(out)
}

// Payload is the decoded body of a POST or PUT request.
type Payload struct {
	// Form holds the parsed parameters of a form-urlencoded body.
	Form Params
	// Text is the body verbatim when it is not form-urlencoded.
	Text string
}

// IsForm reports whether the body was decoded as form parameters.
func (p *Payload) IsForm() bool {
	return p != nil && p.Form != nil
}

// MarshalJSON encodes the payload as its parameter object or its text.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Form != nil {
		return json.Marshal(p.Form)
	}
	return json.Marshal(p.Text)
}

// isFormContent reports whether a content-type header value starts with the
// form-urlencoded media type.
func isFormContent(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), FormContentType)
}
