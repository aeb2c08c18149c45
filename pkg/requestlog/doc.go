// Package requestlog provides types for capturing served requests so that
// tests and operators can inspect what reached a server.
//
// It is distinct from operational logging (which uses log/slog).
//
// # Core Types
//
// Entry is one served request: what arrived, which route handled it and what
// status was answered.
//
// # Store Interface
//
// Store supports recording entries, querying by ID or with a Filter, counting
// and clearing. MemoryStore is a fixed-capacity FIFO implementation.
//
//	store := requestlog.NewMemoryStore(1000)
//	srv := webserver.New(nil, webserver.WithRequestLog(store))
//	...
//	for _, e := range store.List(&requestlog.Filter{Path: "/echo/"}) {
//	    fmt.Println(e.Method, e.Path, e.StatusCode)
//	}
//
// # Package Design
//
// This is a leaf package with no internal dependencies, allowing it to be
// imported by any package without creating import cycles.
package requestlog
