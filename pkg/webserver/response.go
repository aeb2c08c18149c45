package webserver

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// EncodingBinary writes body bytes without any conversion.
const EncodingBinary = "binary"

// Response is the write side of one request. It is owned by a single
// handler invocation but may be finished from any goroutine.
type Response struct {
	w http.ResponseWriter

	mu          sync.Mutex
	status      int
	header      http.Header
	encoding    string
	enc         encoding.Encoding
	headersSent bool
	finished    bool
	written     int64
	done        chan struct{}
}

func newResponse(w http.ResponseWriter) *Response {
	return &Response{
		w:      w,
		status: http.StatusOK,
		header: make(http.Header),
		done:   make(chan struct{}),
	}
}

// StatusCode returns the status code that is or will be sent.
func (res *Response) StatusCode() int {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.status
}

// SetStatusCode sets the status code sent with the headers.
func (res *Response) SetStatusCode(code int) error {
	res.mu.Lock()
	defer res.mu.Unlock()

	if res.headersSent {
		return ErrHeadersSent
	}
	if !validStatus(code) {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, code)
	}
	res.status = code
	return nil
}

// Header returns the current value of the named header, or "" when unset.
func (res *Response) Header(name string) string {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.header.Get(name)
}

// Headers returns a copy of the response headers.
func (res *Response) Headers() http.Header {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.header.Clone()
}

// SetHeader sets a header, replacing any previous value.
func (res *Response) SetHeader(name, value string) error {
	res.mu.Lock()
	defer res.mu.Unlock()

	if res.headersSent {
		return ErrHeadersSent
	}
	res.header.Set(name, value)
	return nil
}

// SetEncoding selects how written text is converted to bytes. "" and
// "binary" write bytes unchanged; any other name must be a charset known to
// the WHATWG or IANA registries, and written UTF-8 text is transcoded to it.
func (res *Response) SetEncoding(name string) error {
	enc, err := lookupEncoding(name)
	if err != nil {
		return err
	}

	res.mu.Lock()
	defer res.mu.Unlock()
	res.encoding = name
	res.enc = enc
	return nil
}

// Encoding returns the name passed to SetEncoding.
func (res *Response) Encoding() string {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.encoding
}

// WriteHead merges headers into the response headers, sets the status code
// and sends both. It fails with ErrHeadersSent when headers were already
// sent, leaving the response unchanged.
func (res *Response) WriteHead(status int, headers map[string]string) error {
	res.mu.Lock()
	defer res.mu.Unlock()

	if res.finished {
		return ErrResponseFinished
	}
	if res.headersSent {
		return ErrHeadersSent
	}
	if !validStatus(status) {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}

	for name, value := range headers {
		res.header.Set(name, value)
	}
	res.status = status
	res.sendHeadersLocked()
	return nil
}

// Write writes a body chunk, sending the headers first if needed.
func (res *Response) Write(p []byte) (int, error) {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.writeLocked(p)
}

// WriteString writes s as a body chunk.
func (res *Response) WriteString(s string) (int, error) {
	return res.Write([]byte(s))
}

// Close sends the headers if they were not sent and finishes the response.
// Closing a finished response does nothing.
func (res *Response) Close() error {
	res.mu.Lock()
	defer res.mu.Unlock()

	if res.finished {
		return nil
	}
	if !res.headersSent {
		res.sendHeadersLocked()
	}
	res.finishLocked()
	return nil
}

// CloseGracefully writes an empty chunk through the encoding-aware write
// path and finishes the response.
func (res *Response) CloseGracefully() error {
	res.mu.Lock()
	defer res.mu.Unlock()

	if res.finished {
		return nil
	}
	if _, err := res.writeLocked(nil); err != nil {
		return err
	}
	res.finishLocked()
	return nil
}

// HeadersSent reports whether the status line and headers were sent.
func (res *Response) HeadersSent() bool {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.headersSent
}

// Finished reports whether the response was closed.
func (res *Response) Finished() bool {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.finished
}

// Done is closed when the response finishes.
func (res *Response) Done() <-chan struct{} {
	return res.done
}

// StatusLine renders the status line for the current status code.
func (res *Response) StatusLine() string {
	return StatusLine(res.StatusCode())
}

// BytesWritten returns the number of body bytes handed to the engine.
func (res *Response) BytesWritten() int64 {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.written
}

// fail answers a handler failure: 500 text/plain when headers are still
// pending, then the error text, then finish. It reports whether anything
// could be written.
func (res *Response) fail(failure any) bool {
	res.mu.Lock()
	defer res.mu.Unlock()

	if res.finished {
		return false
	}
	if !res.headersSent {
		res.status = http.StatusInternalServerError
		res.header = http.Header{"Content-Type": {"text/plain"}}
	}
	_, err := res.writeLocked([]byte(errorBody(failure)))
	res.finishLocked()
	return err == nil
}

// abort marks the response finished without touching the engine. Used when
// the request ended before the handler closed the response.
func (res *Response) abort() {
	res.mu.Lock()
	defer res.mu.Unlock()
	res.finishLocked()
}

func (res *Response) sendHeadersLocked() {
	dst := res.w.Header()
	for name, values := range res.header {
		dst[name] = append([]string(nil), values...)
	}
	res.w.WriteHeader(res.status)
	res.headersSent = true
}

func (res *Response) writeLocked(p []byte) (int, error) {
	if res.finished {
		return 0, ErrResponseFinished
	}
	if !res.headersSent {
		res.sendHeadersLocked()
	}
	if len(p) == 0 {
		return 0, nil
	}

	data := p
	if res.enc != nil {
		encoded, err := res.enc.NewEncoder().Bytes(p)
		if err != nil {
			return 0, fmt.Errorf("encoding body as %s: %w", res.encoding, err)
		}
		data = encoded
	}

	n, err := res.w.Write(data)
	res.written += int64(n)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (res *Response) finishLocked() {
	if res.finished {
		return
	}
	res.finished = true
	close(res.done)
}

// lookupEncoding resolves an encoding name. A nil encoding means bytes are
// written unchanged.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, EncodingBinary) {
		return nil, nil
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

// CheckEncoding reports whether name is accepted by SetEncoding.
func CheckEncoding(name string) error {
	_, err := lookupEncoding(name)
	return err
}
