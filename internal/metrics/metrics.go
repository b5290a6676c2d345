// Package metrics exposes prometheus collectors for the console.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector wraps the console metrics with their own registry.
type Collector struct {
	registry *prometheus.Registry

	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	ActiveSessions     prometheus.Gauge
	SweptSessions      prometheus.Counter
}

// NewCollector creates a Collector under the given namespace.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of requests sent to the rental API",
		}, []string{"resource", "operation", "status_code"}),
		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Duration of rental API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "operation"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "console_sessions_active",
			Help:      "Number of console sessions held in memory",
		}),
		SweptSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "console_sessions_swept_total",
			Help:      "Console sessions dropped by the sweeper",
		}),
	}

	reg.MustRegister(c.APIRequestsTotal, c.APIRequestDuration, c.ActiveSessions, c.SweptSessions)
	return c
}

// ObserveAPIRequest records one API round trip. A zero status means no
// response was received.
func (c *Collector) ObserveAPIRequest(resource, operation string, status int, d time.Duration) {
	if c == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	c.APIRequestsTotal.WithLabelValues(resource, operation, code).Inc()
	c.APIRequestDuration.WithLabelValues(resource, operation).Observe(d.Seconds())
}

// SetActiveSessions updates the live session gauge.
func (c *Collector) SetActiveSessions(n int) {
	if c == nil {
		return
	}
	c.ActiveSessions.Set(float64(n))
}

// AddSwept counts sessions removed by the sweeper.
func (c *Collector) AddSwept(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.SweptSessions.Add(float64(n))
}

// Registry returns the underlying prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
