package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the application metrics
type Metrics struct {
	// HTTP request metrics
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Content accessor metrics, labelled by domain and result source (live, fallback, ...)
	ContentFetchTotal    *prometheus.CounterVec
	ContentFetchDuration *prometheus.HistogramVec

	// Live notification metrics
	NotificationsReceivedTotal *prometheus.CounterVec
	NotificationLogSize        prometheus.Gauge
	RealtimeConnectsTotal      *prometheus.CounterVec

	// Booking intake metrics
	BookingSubmissionsTotal *prometheus.CounterVec

	// Event publishing metrics
	EventPublishTotal *prometheus.CounterVec
}

// Global metrics instance with mutex for thread safety
var (
	globalMetrics *Metrics
	metricsMutex  sync.Mutex
)

// NewMetrics returns the process-wide Metrics, creating and registering it on first use.
func NewMetrics() *Metrics {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	// Return existing instance if already created
	if globalMetrics != nil {
		return globalMetrics
	}

	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		ContentFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_fetch_total",
			Help: "Total number of content accessor calls by result source",
		}, []string{"domain", "source"}),

		ContentFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Content accessor duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"domain", "source"}),

		NotificationsReceivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_received_total",
			Help: "Total number of live notifications received",
		}, []string{"kind"}),

		NotificationLogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_log_size",
			Help: "Number of notifications currently held in memory",
		}),

		RealtimeConnectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_connects_total",
			Help: "Total number of real-time channel connection attempts",
		}, []string{"status"}),

		BookingSubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_submissions_total",
			Help: "Total number of booking form submissions",
		}, []string{"status"}),

		EventPublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "event_publish_total",
			Help: "Total number of event publish operations",
		}, []string{"event_type", "status"}),
	}

	// Register metrics with the default registry
	registerMetrics(m)

	// Store as global instance
	globalMetrics = m

	return m
}

// registerMetrics registers all metrics with the default registry
func registerMetrics(m *Metrics) {
	registerOrGet(m.HTTPRequestTotal)
	registerOrGet(m.HTTPRequestDuration)
	registerOrGet(m.ContentFetchTotal)
	registerOrGet(m.ContentFetchDuration)
	registerOrGet(m.NotificationsReceivedTotal)
	registerOrGet(m.NotificationLogSize)
	registerOrGet(m.RealtimeConnectsTotal)
	registerOrGet(m.BookingSubmissionsTotal)
	registerOrGet(m.EventPublishTotal)
}

// registerOrGet tries to register a metric, returns the existing one if already registered
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}
