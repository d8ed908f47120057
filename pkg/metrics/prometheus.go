package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exports run outcomes to an external metrics system.
type Recorder interface {
	ObserveRun(outcome, errorKind string, durationMs int64)
	IncEndpoint(name string)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) ObserveRun(string, string, int64) {}
func (NopRecorder) IncEndpoint(string)               {}

// PrometheusRecorder exports run outcomes as Prometheus metrics.
type PrometheusRecorder struct {
	runs      *prometheus.CounterVec
	errors    *prometheus.CounterVec
	duration  prometheus.Histogram
	endpoints *prometheus.CounterVec
}

// NewPrometheusRecorder registers the exporter's collectors with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoweave_runs_total",
			Help: "Integration runs by outcome.",
		}, []string{"outcome"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoweave_run_errors_total",
			Help: "Failed integration runs by error kind.",
		}, []string{"kind"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "autoweave_run_duration_seconds",
			Help:    "Integration run duration.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		endpoints: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoweave_endpoint_calls_total",
			Help: "Facade endpoint invocations.",
		}, []string{"endpoint"}),
	}
}

func (r *PrometheusRecorder) ObserveRun(outcome, errorKind string, durationMs int64) {
	r.runs.WithLabelValues(outcome).Inc()
	if errorKind != "" {
		r.errors.WithLabelValues(errorKind).Inc()
	}
	r.duration.Observe(float64(durationMs) / 1000.0)
}

func (r *PrometheusRecorder) IncEndpoint(name string) {
	r.endpoints.WithLabelValues(name).Inc()
}
