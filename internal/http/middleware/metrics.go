// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds every Prometheus collector of the HTTP layer. Metrics()
// records one observation per request, labelled so dashboards can split
// traffic by envelope outcome:
//
//   - method:  HTTP method verb (GET/POST/…)
//   - route:   the registered Gin route (e.g. /api/v1/contacts/:id), or
//     "unmatched" when no route matched so raw URLs never become labels
//   - class:   status class ("2xx", "3xx", "4xx", "5xx")
//
// api_errors_total is incremented by the error boundary (see errors.go), not
// by Metrics, because only the boundary knows the classified error kind.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that did not hit a registered route.
const unmatchedRoute = "unmatched"

var (
	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests by route and status class.",
		},
		[]string{"method", "route", "class"},
	)

	// Status is omitted to keep histogram cardinality low.
	apiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	apiInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_requests_inflight",
			Help: "Current number of in-flight API requests.",
		},
	)

	// Envelope bodies are small; CSV exports land in the upper buckets.
	apiResponseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_response_size_bytes",
			Help:    "Size of API response bodies in bytes.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 9), // 64B..4MiB
		},
		[]string{"method", "route"},
	)

	apiErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of classified API error responses.",
		},
		[]string{"kind", "status"},
	)
)

func init() {
	prometheus.MustRegister(apiRequests, apiLatency, apiInflight, apiResponseBytes, apiErrors)
}

// statusClass folds a status code into its "Nxx" class.
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

// routeLabel returns the matched route template, or unmatchedRoute.
func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return unmatchedRoute
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
// Mount /metrics with promhttp.Handler() next to it.
//
// Bodies of unknown size (c.Writer.Size() < 0, e.g. 204 or 304) are not
// observed in the size histogram.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		apiInflight.Inc()
		defer apiInflight.Dec()

		c.Next()

		method := c.Request.Method
		route := routeLabel(c)

		apiRequests.WithLabelValues(method, route, statusClass(c.Writer.Status())).Inc()
		apiLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			apiResponseBytes.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}
