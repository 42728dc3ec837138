package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	activeStreams *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skyline_messages_sent_total",
				Help: "Total number of plays sent to backend",
			},
			[]string{"backend", "gid"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skyline_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		activeStreams: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skyline_replay_streams_active",
				Help: "Currently open replay streams by mode",
			},
			[]string{"mode"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skyline_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordMessageSent records a play sent to a backend.
func (r *Recorder) RecordMessageSent(backend, gid string) {
	r.messagesSent.WithLabelValues(backend, gid).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStreamOpen marks one more open replay stream.
func (r *Recorder) RecordStreamOpen(mode string) {
	r.activeStreams.WithLabelValues(mode).Inc()
}

// RecordStreamClose marks one replay stream released.
func (r *Recorder) RecordStreamClose(mode string) {
	r.activeStreams.WithLabelValues(mode).Dec()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
