package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-storeauth/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	labelOperation = "operation"
	labelStatus    = "status"
	unknownLabel   = "unknown"
)

var durationBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

type Config struct {
	Namespace string
	// Registry defaults to a fresh registry so several services can coexist
	// in one process.
	Registry *prometheus.Registry
}

// Recorder implements core.MetricsRecorder with one counter and one
// histogram, both labelled by operation and status.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

func NewRecorder(cfg Config) (*Recorder, error) {
	namespace := strings.TrimSpace(cfg.Namespace)
	if namespace == "" {
		namespace = "storeauth"
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Token lifecycle operations by outcome.",
	}, []string{labelOperation, labelStatus})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_ms",
		Help:      "Token lifecycle operation latency in milliseconds.",
		Buckets:   durationBuckets,
	}, []string{labelOperation, labelStatus})

	for _, collector := range []prometheus.Collector{operations, durations} {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("prometheus: register collector: %w", err)
		}
	}
	return &Recorder{registry: registry, operations: operations, durations: durations}, nil
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value <= 0 {
		return
	}
	r.operations.With(labels(name, tags)).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	r.durations.With(labels(name, tags)).Observe(value)
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler exposes the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// labels falls back to the operation segment of a storeauth.<op>.<suffix>
// metric name when the operation tag is absent.
func labels(name string, tags map[string]string) prometheus.Labels {
	operation := strings.TrimSpace(tags[labelOperation])
	if operation == "" {
		parts := strings.Split(strings.TrimSpace(name), ".")
		if len(parts) >= 3 {
			operation = parts[1]
		}
	}
	if operation == "" {
		operation = unknownLabel
	}
	status := strings.TrimSpace(tags[labelStatus])
	if status == "" {
		status = unknownLabel
	}
	return prometheus.Labels{labelOperation: operation, labelStatus: status}
}

var _ core.MetricsRecorder = (*Recorder)(nil)
