package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "admin_console"

// Collector owns a private registry so tests and multiple gateways in one
// process do not collide on the global one. A nil *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	APIRequests   *prometheus.CounterVec
	APIDuration   *prometheus.HistogramVec
	TokenFetches  *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	ViewsComputed *prometheus.CounterVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Upstream admin API calls by entity, operation and outcome",
		}, []string{"entity", "op", "outcome"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latency of upstream admin API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity", "op"}),
		TokenFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_fetches_total",
			Help:      "Access token round trips to the auth endpoint",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Gateway HTTP requests",
		}, []string{"method", "route", "status_code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Gateway HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ViewsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_computed_total",
			Help:      "List views derived by the gateway",
		}, []string{"entity"}),
	}

	reg.MustRegister(
		c.APIRequests,
		c.APIDuration,
		c.TokenFetches,
		c.HTTPRequests,
		c.HTTPDuration,
		c.ViewsComputed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveAPICall(entity, op, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.APIRequests.WithLabelValues(entity, op, outcome).Inc()
	c.APIDuration.WithLabelValues(entity, op).Observe(d.Seconds())
}

func (c *Collector) ObserveTokenFetch(outcome string) {
	if c == nil {
		return
	}
	c.TokenFetches.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) ObserveView(entity string) {
	if c == nil {
		return
	}
	c.ViewsComputed.WithLabelValues(entity).Inc()
}
