// Package routes turns configured routes into webserver handlers.
package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getmockd/webserver/pkg/config"
	"github.com/getmockd/webserver/pkg/httputil"
	"github.com/getmockd/webserver/pkg/webserver"
)

// Handler builds the handler answering for rc. Static parts of the response
// (JSON body, encoding) are checked here so broken routes fail before serving.
func Handler(rc config.RouteConfig) (webserver.HandlerFunc, error) {
	if err := rc.Validate(); err != nil {
		return nil, err
	}

	switch {
	case rc.Echo:
		return Echo, nil
	case rc.Error != "":
		msg := rc.Error
		return func(*webserver.Request, *webserver.Response) error {
			return errors.New(msg)
		}, nil
	}

	status := rc.Status
	if status == 0 {
		status = http.StatusOK
	}

	headers := make(map[string]string, len(rc.Headers)+1)
	for name, value := range rc.Headers {
		headers[http.CanonicalHeaderKey(name)] = value
	}

	var body []byte
	switch {
	case rc.JSON != nil:
		data, err := json.Marshal(rc.JSON)
		if err != nil {
			return nil, fmt.Errorf("route %q: encoding json body: %w", rc.Pattern(), err)
		}
		body = data
		setDefault(headers, "Content-Type", "application/json")
	case rc.Body != "":
		body = []byte(rc.Body)
		setDefault(headers, "Content-Type", "text/plain")
	}

	if err := webserver.CheckEncoding(rc.Encoding); err != nil {
		return nil, fmt.Errorf("route %q: %w", rc.Pattern(), err)
	}
	encoding := rc.Encoding

	return func(_ *webserver.Request, res *webserver.Response) error {
		if encoding != "" {
			if err := res.SetEncoding(encoding); err != nil {
				return err
			}
		}
		if err := res.WriteHead(status, headers); err != nil {
			return err
		}
		if len(body) > 0 {
			if _, err := res.Write(body); err != nil {
				return err
			}
		}
		return res.Close()
	}, nil
}

// Echo answers with the request serialized as JSON.
func Echo(req *webserver.Request, res *webserver.Response) error {
	return httputil.WriteOK(res, req)
}

// Register builds and registers every route on srv in order. Nothing is
// registered when any route is invalid.
func Register(srv *webserver.Server, routes []config.RouteConfig) error {
	handlers := make([]webserver.HandlerFunc, len(routes))
	for i, rc := range routes {
		h, err := Handler(rc)
		if err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
		handlers[i] = h
	}

	for i, rc := range routes {
		if rc.IsPrefix() {
			srv.RegisterPrefix(rc.Prefix, handlers[i])
		} else {
			srv.RegisterPath(rc.Path, handlers[i])
		}
	}
	return nil
}

// RegisterEcho registers Echo under prefix. An empty prefix does nothing.
func RegisterEcho(srv *webserver.Server, prefix string) {
	if prefix == "" {
		return
	}
	srv.RegisterPrefix(prefix, Echo)
}

func setDefault(headers map[string]string, name, value string) {
	if _, ok := headers[name]; !ok {
		headers[name] = value
	}
}
