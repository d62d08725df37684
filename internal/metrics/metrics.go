package metrics

import (
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	// Calibration workflow
	CalibrationClicks   atomic.Uint64
	CalibrationRejected atomic.Uint64 // clicks on a container with no area
	CalibrationsSaved   atomic.Uint64
	BackendErrors       atomic.Uint64

	// Telemetry stream
	TelemetryMessages   atomic.Uint64
	TelemetryMalformed  atomic.Uint64
	TelemetryReconnects atomic.Uint64
	TelemetryConnected  atomic.Uint64 // 0 = disconnected, 1 = connected
	SnapshotsFlushed    atomic.Uint64

	// Detection loop
	FramesProcessed atomic.Uint64
	FramesDropped   atomic.Uint64
	LoopFPS         atomic.Uint64
	ProcessLatency  atomic.Uint64 // last frame, microseconds

	// Charts
	ChartsRendered atomic.Uint64

	// Viewers
	ActiveViewers atomic.Uint64

	// Prometheus collectors
	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.registerPrometheusMetrics()

	return m
}

func (m *Metrics) gauge(name, help string, value *atomic.Uint64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		func() float64 { return float64(value.Load()) },
	))
}

// registerPrometheusMetrics registers all metrics with Prometheus
func (m *Metrics) registerPrometheusMetrics() {
	m.gauge("garage_calibration_clicks_total", "Accepted calibration clicks", &m.CalibrationClicks)
	m.gauge("garage_calibration_rejected_total", "Calibration clicks rejected for invalid geometry", &m.CalibrationRejected)
	m.gauge("garage_calibrations_saved_total", "Calibration payloads saved", &m.CalibrationsSaved)
	m.gauge("garage_backend_errors_total", "Failed requests to the detection backend", &m.BackendErrors)

	m.gauge("garage_telemetry_messages_total", "Live statistics messages received", &m.TelemetryMessages)
	m.gauge("garage_telemetry_malformed_total", "Live statistics messages that failed to decode", &m.TelemetryMalformed)
	m.gauge("garage_telemetry_reconnects_total", "Telemetry stream reconnect attempts", &m.TelemetryReconnects)
	m.gauge("garage_telemetry_connected", "Telemetry stream connected (0=no, 1=yes)", &m.TelemetryConnected)
	m.gauge("garage_snapshots_flushed_total", "Telemetry snapshots written to the database", &m.SnapshotsFlushed)

	m.gauge("garage_frames_processed_total", "Frames run through the detection loop", &m.FramesProcessed)
	m.gauge("garage_frames_dropped_total", "Frames dropped by the detection loop", &m.FramesDropped)
	m.gauge("garage_detection_fps", "Frames processed during the last one-second window", &m.LoopFPS)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "garage_process_latency_ms",
			Help: "Processing latency of the last frame in milliseconds",
		},
		func() float64 { return float64(m.ProcessLatency.Load()) / 1000 },
	))

	m.gauge("garage_charts_rendered_total", "Charts rendered", &m.ChartsRendered)
	m.gauge("garage_active_viewers", "Connected dashboard viewers", &m.ActiveViewers)
}

// UpdateProcessLatency records how long the last frame took.
func (m *Metrics) UpdateProcessLatency(d time.Duration) {
	m.ProcessLatency.Store(uint64(d.Microseconds()))
}

// SetConnected updates the telemetry connection gauge.
func (m *Metrics) SetConnected(connected bool) {
	if connected {
		m.TelemetryConnected.Store(1)
	} else {
		m.TelemetryConnected.Store(0)
	}
}

// RegisterAccuracy exposes the backend's reported detection accuracy.
func (m *Metrics) RegisterAccuracy(accuracy func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "garage_detection_accuracy_percent",
			Help: "Detection accuracy reported by the backend",
		},
		func() float64 {
			v := accuracy()
			if math.IsNaN(v) {
				return 0
			}
			return v
		},
	))
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
