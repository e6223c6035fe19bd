package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Idea transition counter by edge
	TransitionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incubation_idea_transitions_total",
			Help: "Total number of applied idea status transitions",
		},
		[]string{"from", "to"},
	)

	// Mentor assignment operations
	AssignmentCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incubation_assignments_total",
			Help: "Total number of mentor assignment operations",
		},
		[]string{"operation"}, // "assign", "unassign"
	)

	// Chat message operations
	MessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incubation_messages_total",
			Help: "Total number of chat message operations",
		},
		[]string{"operation"}, // "post", "edit", "delete", "read"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incubation_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Domain error counter by taxonomy code
	DomainErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incubation_domain_errors_total",
			Help: "Total number of rejected operations by error code",
		},
		[]string{"code"},
	)

	// Notification counter by kind
	NotificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incubation_notifications_total",
			Help: "Total number of dispatched notifications",
		},
		[]string{"kind"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "incubation_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "incubation_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Live websocket connections
	WSConnectionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "incubation_ws_connections",
			Help: "Number of currently live websocket connections",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "incubation_info",
			Help: "Information about the incubation service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(TransitionCounter)
	prometheus.MustRegister(AssignmentCounter)
	prometheus.MustRegister(MessageCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(DomainErrorCounter)
	prometheus.MustRegister(NotificationCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(WSConnectionsGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordTransition records one applied idea transition
func RecordTransition(from, to string) {
	TransitionCounter.With(prometheus.Labels{"from": from, "to": to}).Inc()
}

// RecordAssignment records a mentor assignment operation
func RecordAssignment(operation string) {
	AssignmentCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordMessage records a chat message operation
func RecordMessage(operation string) {
	MessageCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordDomainError records a rejected operation by taxonomy code
func RecordDomainError(code string) {
	DomainErrorCounter.With(prometheus.Labels{"code": code}).Inc()
}

// RecordNotification records a dispatched notification by kind
func RecordNotification(kind string) {
	NotificationCounter.With(prometheus.Labels{"kind": kind}).Inc()
}
