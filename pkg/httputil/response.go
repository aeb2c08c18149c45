// Package httputil provides shared response helpers for webserver handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/getmockd/webserver/pkg/webserver"
)

// WriteJSON writes data as a JSON response with the given status code and
// closes the response. It sets the Content-Type header to application/json.
func WriteJSON(res *webserver.Response, status int, data any) error {
	var body []byte
	if data != nil {
		var err error
		body, err = json.Marshal(data)
		if err != nil {
			return err
		}
		body = append(body, '\n')
	}

	if err := res.WriteHead(status, map[string]string{"Content-Type": "application/json"}); err != nil {
		return err
	}
	if len(body) > 0 {
		if _, err := res.Write(body); err != nil {
			return err
		}
	}
	return res.Close()
}

// WriteError writes a JSON error response with the given status code.
// The error response includes an error code and a human-readable message.
func WriteError(res *webserver.Response, status int, errCode, message string) error {
	return WriteJSON(res, status, map[string]string{
		"error":   errCode,
		"message": message,
	})
}

// WriteOK writes a 200 OK response with data.
func WriteOK(res *webserver.Response, data any) error {
	return WriteJSON(res, http.StatusOK, data)
}

// WriteNotFound writes a 404 Not Found error response.
func WriteNotFound(res *webserver.Response, errCode, message string) error {
	return WriteError(res, http.StatusNotFound, errCode, message)
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed error response.
func WriteMethodNotAllowed(res *webserver.Response, allowed string) error {
	if err := res.SetHeader("Allow", allowed); err != nil {
		return err
	}
	return WriteError(res, http.StatusMethodNotAllowed, "method_not_allowed", "allowed methods: "+allowed)
}
