package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Route label values for requests that never reached a handler.
const (
	RouteUnmatched = "unmatched"
	RouteRejected  = "rejected"
)

// Failure kinds.
const (
	FailureError = "error"
	FailurePanic = "panic"
)

// Collector groups the webserver metrics.
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	routes   *prometheus.GaugeVec
}

// NewCollector creates the webserver metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webserver_requests_total",
			Help: "Total number of served requests",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webserver_request_duration_seconds",
			Help:    "Time from request arrival until the response finished",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webserver_handler_failures_total",
			Help: "Handlers that returned an error or panicked",
		}, []string{"route", "kind"}),
		routes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "webserver_routes",
			Help: "Number of registered routes",
		}, []string{"kind"}),
	}

	for _, m := range []prometheus.Collector{c.requests, c.duration, c.failures, c.routes} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewRegistry returns a registry holding the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	method = normalizeMethod(method)
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// HandlerFailure records a handler that returned an error (FailureError) or panicked (FailurePanic).
func (c *Collector) HandlerFailure(route, kind string) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(route, kind).Inc()
}

// SetRoutes sets the number of registered routes of the given kind.
func (c *Collector) SetRoutes(kind string, n int) {
	if c == nil {
		return
	}
	c.routes.WithLabelValues(kind).Set(float64(n))
}

// normalizeMethod bounds the method label to the standard verbs.
func normalizeMethod(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodConnect,
		http.MethodOptions, http.MethodTrace:
		return method
	default:
		return "OTHER"
	}
}
