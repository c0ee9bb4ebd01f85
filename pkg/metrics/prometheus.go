package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	updatesTotal    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	sentimentScore  prometheus.Gauge
	latency         *prometheus.HistogramVec
	liveConnections prometheus.Gauge
}

var (
	defaultRecorder *Recorder
	defaultOnce     sync.Once
)

// New returns the process-wide recorder registered with the default registry.
func New() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewWithRegistry(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// NewWithRegistry registers a fresh set of collectors with reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		updatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmood_update_cycles_total",
				Help: "Total number of market update cycles",
			},
			[]string{"source", "result"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmood_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		sentimentScore: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketmood_sentiment_score",
				Help: "Last computed sentiment score (0-100)",
			},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketmood_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		liveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketmood_live_connections",
				Help: "Open live-update connections",
			},
		),
	}
}

// RecordUpdate counts a finished update cycle.
func (r *Recorder) RecordUpdate(source, result string) {
	r.updatesTotal.WithLabelValues(source, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordSentiment(score float64) {
	r.sentimentScore.Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) SetLiveConnections(n int) {
	r.liveConnections.Set(float64(n))
}
