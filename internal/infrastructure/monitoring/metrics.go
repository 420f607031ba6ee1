package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// Lifecycle metrics
	Transitions   *prometheus.CounterVec
	BuildDuration prometheus.Histogram
	BuildErrors   prometheus.Counter

	// Registry metrics
	RegistryViews prometheus.Histogram

	// Reporter metrics
	ReportCards     prometheus.Counter
	ReportDownloads prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		SessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "facet_sessions_active",
				Help: "Number of active sessions",
			},
		),
		SessionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "facet_sessions_total",
				Help: "Total number of sessions created",
			},
		),

		Transitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facet_lifecycle_transitions_total",
				Help: "Total number of lifecycle transitions",
			},
			[]string{"to"},
		),
		BuildDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "facet_registry_build_duration_seconds",
				Help:    "Dataset registry build duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		BuildErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "facet_registry_build_errors_total",
				Help: "Total number of fatal registry build errors",
			},
		),

		RegistryViews: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "facet_registry_views",
				Help:    "Leaf-scoped views per built registry",
				Buckets: []float64{1, 2, 5, 10, 20, 50},
			},
		),

		ReportCards: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "facet_report_cards_total",
				Help: "Total number of report cards collected",
			},
		),
		ReportDownloads: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "facet_report_downloads_total",
				Help: "Total number of report archive downloads",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "facet_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facet_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "facet_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric.
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordTransition records a lifecycle phase transition.
func (m *Metrics) RecordTransition(to string) {
	m.Transitions.WithLabelValues(to).Inc()
}

// RecordBuild records a completed registry build.
func (m *Metrics) RecordBuild(duration time.Duration, views int) {
	m.BuildDuration.Observe(duration.Seconds())
	m.RegistryViews.Observe(float64(views))
}

// RecordBuildError records a fatal registry build error.
func (m *Metrics) RecordBuildError() {
	m.BuildErrors.Inc()
}

// RecordWSMessage records a WebSocket message.
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SessionOpened tracks a new session.
func (m *Metrics) SessionOpened() {
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

// SessionClosed tracks a destroyed session.
func (m *Metrics) SessionClosed() {
	m.SessionsActive.Dec()
}

// IncWSConnections increments WebSocket connections.
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections.
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// IncReportCards increments the collected report card counter.
func (m *Metrics) IncReportCards() {
	m.ReportCards.Inc()
}

// IncReportDownloads increments the report download counter.
func (m *Metrics) IncReportDownloads() {
	m.ReportDownloads.Inc()
}
