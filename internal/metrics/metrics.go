// Package metrics exposes Prometheus counters for HTTP traffic, live feed
// connections and domain events.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	FeedConnections *prometheus.GaugeVec
	DomainEvents    *prometheus.CounterVec
	RateLimited     prometheus.Counter
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	gatherer        prometheus.Gatherer
}

// New registers every collector with reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		FeedConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "redsheet_feed_connections",
			Help: "Current number of open campaign feed connections",
		}, []string{"transport"}),
		DomainEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redsheet_domain_events_total",
			Help: "Campaign events published, by type",
		}, []string{"type"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redsheet_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		gatherer: reg,
	}
	reg.MustRegister(m.FeedConnections, m.DomainEvents, m.RateLimited, m.requestsTotal, m.requestDuration)
	return m
}

// Middleware records request counts and latency labelled by chi route
// pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := prometheus.Labels{"method": r.Method, "path": path, "status": strconv.Itoa(status)}
		m.requestsTotal.With(labels).Inc()
		m.requestDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
