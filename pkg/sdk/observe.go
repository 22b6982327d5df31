package metasearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/metasearch/internal/db"
	"github.com/kailas-cloud/metasearch/internal/metrics"
)

// operation identifies one SDK call for metrics and logs.
type operation struct {
	name    string
	entity  Entity
	backend db.Backend
}

func (op operation) labels() []string {
	return []string{op.name, string(op.entity), metrics.BackendLabel(string(op.backend))}
}

// sdkMetrics counts and times operations per entity and search context.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metasearch",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type, entity, search context and status.",
		}, []string{"operation", "entity", "backend", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "metasearch",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds by type, entity and search context.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation", "entity", "backend"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector, or adopts the one a previous client registered.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	var are prometheus.AlreadyRegisteredError
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &are):
		return fmt.Errorf("metasearch: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("metasearch: metric already registered with incompatible type: %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer provides logging and metrics for SDK operations.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newSDKMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

// observe records one finished operation. Safe on a nil observer.
func (o *observer) observe(op operation, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		labels := op.labels()
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(append(labels, status)...).Inc()
		o.metrics.duration.WithLabelValues(labels...).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	attrs := []any{
		"op", op.name,
		"entity", string(op.entity),
		"backend", string(op.backend),
		"duration", dur,
	}
	if err != nil {
		o.logger.Warn("Search operation failed", append(attrs, "error", err, "error_class", errorClass(err))...)
		return
	}
	o.logger.Debug("Search operation completed", attrs...)
}

// errorClass labels a failure by its domain sentinel for logs.
func errorClass(err error) string {
	for _, s := range []error{
		ErrUnsupportedFilterField, ErrMalformedPairedFilter, ErrInvalidParameter,
		ErrUnknownEntity, ErrBackendUnavailable, ErrSchemaMismatch, ErrQueryExecution,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "other"
}
