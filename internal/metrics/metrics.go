// Package metrics collects Prometheus metrics for both services and serves
// them at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns every metric the application exports. It satisfies
// service.MutationRecorder, tmdb.Recorder and middleware.RequestRecorder.
type Collector struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration prometheus.Histogram
	listMutations    *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg.
// Register each Collector once per registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filmpire_http_requests_total",
			Help: "HTTP requests served, by service, method, route and status.",
		}, []string{"service", "method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filmpire_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "route"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filmpire_upstream_requests_total",
			Help: "Calls to the movie metadata API, by status code (\"error\" for transport failures).",
		}, []string{"status"}),
		upstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "filmpire_upstream_request_duration_seconds",
			Help:    "Movie metadata API latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		listMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filmpire_list_mutations_total",
			Help: "Favorites / watchlist adds and removes, by outcome.",
		}, []string{"kind", "op", "outcome"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.upstreamRequests,
		c.upstreamDuration,
		c.listMutations,
	)

	return c
}

func (c *Collector) RecordHTTPRequest(service, method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(service, method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(service, route).Observe(d.Seconds())
}

// RecordUpstream records one metadata API call. status is 0 when the call
// failed before a response arrived.
func (c *Collector) RecordUpstream(status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.upstreamRequests.WithLabelValues(label).Inc()
	c.upstreamDuration.Observe(d.Seconds())
}

func (c *Collector) RecordListMutation(kind, op, outcome string) {
	c.listMutations.WithLabelValues(kind, op, outcome).Inc()
}

// Handler serves the metrics registered in g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
