package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)

	// OrdersTotal tracks order placement outcomes
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Total number of order placement attempts by outcome",
		},
		[]string{"status"},
	)

	// EventsPublished tracks change-event broadcasts
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_events_published_total",
			Help: "Change events published to the fan-out exchange",
		},
		[]string{"kind", "outcome"},
	)

	// EventsDropped counts events dropped for slow in-process subscribers
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_events_dropped_total",
			Help: "Change events dropped because a subscriber buffer was full",
		},
		[]string{"kind"},
	)

	// EventSubscribers gauges currently connected event viewers
	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "change_event_subscribers",
			Help: "Number of currently connected event stream viewers",
		},
	)

	// CircuitBreakerState tracks breaker state (0=closed, 1=open, 2=half-open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit_name"},
	)
)

// PrometheusMiddleware creates a Gin middleware for automatic metrics collection
func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		RequestsTotal.WithLabelValues(serviceName, c.Request.Method, c.FullPath(), status).Inc()
		RequestDuration.WithLabelValues(serviceName, c.Request.Method, c.FullPath()).Observe(duration)
	}
}
