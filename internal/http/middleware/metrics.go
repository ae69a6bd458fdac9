// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// Metrics() exports Prometheus instrumentation under the "hatch_http"
// namespace. Label cardinality stays bounded:
//
//   - method: HTTP verb
//   - route:  the registered Gin route (e.g. /api/create-egg, /static/*filepath);
//     requests that matched no route share the single value "unmatched"
//   - status: numeric status code as a string
//
// Upload sizes are recorded separately for POST requests that carry a body, so
// image uploads to /api/analyze-image can be tuned against MAX_UPLOAD_BYTES.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "hatch"
	metricsSubsystem = "http"

	// unmatchedRoute labels 404/405 traffic that hit no registered route.
	unmatchedRoute = "unmatched"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	// Generation routes wait on the model provider, so the buckets reach well
	// past the default 10s ceiling.
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 20, 40, 60, 90},
		},
		[]string{"method", "route"},
	)

	requestsInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "requests_inflight",
			Help:      "HTTP requests currently being served.",
		},
	)

	responseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "response_size_bytes",
			Help:      "HTTP response sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 9), // 256B..16MiB
		},
		[]string{"method", "route"},
	)

	uploadSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "upload_size_bytes",
			Help:      "Declared Content-Length of POST bodies.",
			Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 7), // 1KiB..4MiB
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, requestsInflight, responseSize, uploadSize)
}

// routeLabel returns the registered route for c, or unmatchedRoute.
func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return unmatchedRoute
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
//
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
// Responses that never wrote a body (size -1) are not observed in the size
// histogram.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestsInflight.Inc()
		defer requestsInflight.Dec()

		c.Next()

		route := routeLabel(c)
		method := c.Request.Method

		requestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			responseSize.WithLabelValues(method, route).Observe(float64(size))
		}
		if method == "POST" && c.Request.ContentLength > 0 {
			uploadSize.WithLabelValues(route).Observe(float64(c.Request.ContentLength))
		}
	}
}
