package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Relay metrics
	WSConnections  prometheus.Gauge
	SessionsActive prometheus.Gauge
	EventsRelayed  *prometheus.CounterVec
	EventsDropped  *prometheus.CounterVec

	// Proxy metrics
	ProxyFetches  *prometheus.CounterVec
	ProxyDuration prometheus.Histogram

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lumos_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lumos_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lumos_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "lumos_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		SessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "lumos_sessions_active",
				Help: "Number of active relay sessions",
			},
		),
		EventsRelayed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lumos_events_relayed_total",
				Help: "Total number of events routed through the relay",
			},
			[]string{"event", "role"},
		),
		EventsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lumos_events_dropped_total",
				Help: "Total number of events dropped (slow consumer or unjoined sender)",
			},
			[]string{"reason"},
		),

		ProxyFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lumos_proxy_fetches_total",
				Help: "Total number of upstream page fetches",
			},
			[]string{"status"},
		),
		ProxyDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lumos_proxy_fetch_duration_seconds",
				Help:    "Upstream fetch duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "lumos_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordEventRelayed records an event routed within a session
func (m *Metrics) RecordEventRelayed(event, role string) {
	m.EventsRelayed.WithLabelValues(event, role).Inc()
}

// RecordEventDropped records an event that could not be delivered
func (m *Metrics) RecordEventDropped(reason string) {
	m.EventsDropped.WithLabelValues(reason).Inc()
}

// RecordProxyFetch records an upstream fetch outcome
func (m *Metrics) RecordProxyFetch(status string, duration time.Duration) {
	m.ProxyFetches.WithLabelValues(status).Inc()
	m.ProxyDuration.Observe(duration.Seconds())
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// SetSessionsActive sets the number of active sessions
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
}
