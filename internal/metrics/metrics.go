// Package metrics exposes Prometheus collectors for the HTTP gateway and
// the search sync pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns a private Prometheus registry so tests and multiple
// servers in one process do not collide on the global one.
type Registry struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	syncTotal    *prometheus.CounterVec
	syncDuration *prometheus.HistogramVec
	published    *prometheus.CounterVec
	consumed     *prometheus.CounterVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_search_sync_total",
			Help: "Changes handled by the search sync, by final state.",
		}, []string{"collection", "state"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_search_sync_duration_seconds",
			Help:    "Time from receiving a change to its final state.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"collection"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_search_sync_published_total",
			Help: "Sync tasks published to the queue.",
		}, []string{"collection", "result"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_search_sync_consumed_total",
			Help: "Sync tasks consumed from the queue.",
		}, []string{"collection", "result"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequests,
		r.httpDuration,
		r.syncTotal,
		r.syncDuration,
		r.published,
		r.consumed,
	)
	return r
}

// Gatherer is used by tests and the /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) RecordRequest(method, route string, statusCode int, duration time.Duration) {
	r.httpRequests.WithLabelValues(method, route, classifyStatus(statusCode)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (r *Registry) ObserveSync(collection string, state string, duration time.Duration) {
	r.syncTotal.WithLabelValues(collection, state).Inc()
	r.syncDuration.WithLabelValues(collection).Observe(duration.Seconds())
}

func (r *Registry) IncPublish(collection string, ok bool) {
	r.published.WithLabelValues(collection, result(ok)).Inc()
}

func (r *Registry) IncConsume(collection string, ok bool) {
	r.consumed.WithLabelValues(collection, result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func classifyStatus(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
