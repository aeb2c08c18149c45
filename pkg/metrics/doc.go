// Package metrics provides Prometheus metrics for webserver traffic.
//
// A Collector owns the webserver collectors and registers them on a
// prometheus.Registerer:
//
//   - webserver_requests_total: Counter of served requests (labels: method, route, status)
//   - webserver_request_duration_seconds: Histogram of time until the response finished (labels: method, route)
//   - webserver_handler_failures_total: Counter of handlers that returned an error or panicked (labels: route, kind)
//   - webserver_routes: Gauge of registered routes (labels: kind)
//
// # Label Conventions
//
//   - method: uppercase standard HTTP methods, anything else is OTHER
//   - route: the registered path or prefix, or "unmatched" / "rejected"
//   - kind: error or panic for failures, exact or prefix for routes
//
// # Usage
//
//	reg := prometheus.NewRegistry()
//	collector, err := metrics.NewCollector(reg)
//	if err != nil {
//	    return err
//	}
//	srv := webserver.New(nil, webserver.WithMetrics(collector))
//	http.Handle("/metrics", metrics.Handler(reg))
//
// All Collector methods are safe on a nil receiver, so callers do not need to
// check whether metrics are enabled.
package metrics
