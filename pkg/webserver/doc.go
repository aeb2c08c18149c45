// Package webserver exposes a small Node-style request/response API over the
// net/http server engine, for standing up throwaway HTTP endpoints in tests or
// embedding applications.
//
// # Basic Usage
//
//	srv := webserver.New(nil)
//	defer srv.Close()
//
//	err := srv.Listen("localhost:5001", func(req *webserver.Request, res *webserver.Response) error {
//	    if err := res.WriteHead(200, map[string]string{"Content-Type": "text/plain"}); err != nil {
//	        return err
//	    }
//	    if _, err := res.WriteString("test"); err != nil {
//	        return err
//	    }
//	    return res.Close()
//	})
//
// # Routing
//
// RegisterPath installs an exact-match route and RegisterPrefix a prefix
// route. An exact match always wins over a prefix match, and among prefixes
// the longest one wins. Registering a nil handler removes the route. Requests
// that match nothing get the engine's 404 and no handler runs.
//
// # Responses
//
// A Response sends its status line and headers at most once: explicitly
// through WriteHead, or implicitly on the first Write or on Close. After that,
// header mutation fails with ErrHeadersSent.
//
// Responses are asynchronous: returning from the handler does not finish the
// response. The handler, or a goroutine it starts, must call Close. A
// response that is never closed keeps the connection open until the client
// goes away or the server is closed.
//
// # Failures
//
// A handler that returns an error or panics gets a 500 text/plain response
// (when headers were not sent yet) whose body is "An error occured: "
// followed by the error text. When headers were already sent the text is
// appended to whatever was written.
package webserver
