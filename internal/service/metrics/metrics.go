package metrics

import (
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartpole/internal/model"
)

// Metrics holds the detector's counters and their Prometheus collectors.
type Metrics struct {
	FramesProcessed atomic.Uint64
	FramesFailed    atomic.Uint64
	Accidents       atomic.Uint64
	AlertsPublished atomic.Uint64
	AlertsFailed    atomic.Uint64
	LastScore       atomic.Uint64 // score * 1000
	AlertClients    atomic.Int64

	detections *prometheus.CounterVec
	severity   *prometheus.CounterVec
	scores     prometheus.Histogram
	inference  prometheus.Histogram

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartpole_detections_total",
			Help: "Detections seen per class",
		}, []string{"class"}),
		severity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartpole_accidents_by_severity_total",
			Help: "Flagged frames per alert status",
		}, []string{"severity"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartpole_accident_score",
			Help:    "Accident score of every processed frame",
			Buckets: []float64{0, 0.2, 0.4, 0.6, 0.7, 0.85, 1, 1.5, 2},
		}),
		inference: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartpole_inference_seconds",
			Help:    "Detector forward pass duration",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}

	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(m.detections, m.severity, m.scores, m.inference)

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "smartpole_frames_processed_total",
			Help: "Total frames read from the video source",
		},
		func() float64 { return float64(m.FramesProcessed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "smartpole_frames_failed_total",
			Help: "Frames that could not be detected or scored",
		},
		func() float64 { return float64(m.FramesFailed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "smartpole_accidents_total",
			Help: "Total frames flagged as accidents",
		},
		func() float64 { return float64(m.Accidents.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "smartpole_alerts_published_total",
			Help: "Alerts delivered to at least one channel",
		},
		func() float64 { return float64(m.AlertsPublished.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "smartpole_alerts_failed_total",
			Help: "Alert publish errors",
		},
		func() float64 { return float64(m.AlertsFailed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "smartpole_last_score",
			Help: "Accident score of the latest frame",
		},
		func() float64 { return float64(m.LastScore.Load()) / 1000 },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "smartpole_alert_clients",
			Help: "Connected live alert viewers",
		},
		func() float64 { return float64(m.AlertClients.Load()) },
	))
}

// ObserveFrame records one scored frame.
func (m *Metrics) ObserveFrame(a model.FrameAssessment) {
	m.FramesProcessed.Add(1)
	m.LastScore.Store(uint64(math.Round(a.Score * 1000)))
	m.scores.Observe(a.Score)

	for _, det := range a.Detections {
		m.detections.WithLabelValues(det.Class).Inc()
	}
}

// ObserveAccident records a flagged frame.
func (m *Metrics) ObserveAccident(severity model.Severity) {
	m.Accidents.Add(1)
	m.severity.WithLabelValues(string(severity)).Inc()
}

// ObserveInference records the duration of a detector call.
func (m *Metrics) ObserveInference(d time.Duration) {
	m.inference.Observe(d.Seconds())
}

// Registry exposes the registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
