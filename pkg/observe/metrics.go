package observe

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/loom/pkg/runtime"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "loom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render and commit duration.
	// Default: 50µs to roughly 13s, factor 4.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "loom",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a runtime.Observer that records scheduler activity as
// Prometheus metrics.
type Metrics struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	commitsTotal   *prometheus.CounterVec
	commitDuration prometheus.Histogram
	dropsTotal     *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	pendingRoots   prometheus.Gauge
	framesTotal    prometheus.Counter
}

var _ runtime.Observer = (*Metrics)(nil)

// NewMetrics registers the scheduler metrics and returns the observer.
// It panics if the metrics are already registered with the registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of component render invocations",
			ConstLabels: config.ConstLabels,
		}, []string{"component", "result"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Component render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"component"}),

		commitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of completed root fibers",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "result"}),

		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Time spent applying a completed root fiber",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		dropsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "roots_dropped_total",
			Help:        "Total number of root fibers discarded by the scheduler",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of component errors by kind and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "handled"}),

		pendingRoots: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pending_roots",
			Help:        "Root fibers still waiting after the last frame",
			ConstLabels: config.ConstLabels,
		}),

		framesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_total",
			Help:        "Total number of scheduler frames processed",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// FiberRendered implements runtime.Observer.
func (m *Metrics) FiberRendered(info runtime.RenderInfo) {
	m.rendersTotal.WithLabelValues(info.Component, result(info.Err)).Inc()
	m.renderDuration.WithLabelValues(info.Component).Observe(info.Duration.Seconds())
}

// RootCompleted implements runtime.Observer.
func (m *Metrics) RootCompleted(info runtime.CommitInfo) {
	kind := "patch"
	if info.Mount {
		kind = "mount"
	}
	m.commitsTotal.WithLabelValues(kind, result(info.Err)).Inc()
	m.commitDuration.Observe(info.Duration.Seconds())
}

// RootDropped implements runtime.Observer.
func (m *Metrics) RootDropped(_ string, reason runtime.DropReason) {
	m.dropsTotal.WithLabelValues(reason.String()).Inc()
}

// ErrorRaised implements runtime.Observer.
func (m *Metrics) ErrorRaised(_ string, err error, handled bool) {
	m.errorsTotal.WithLabelValues(errorKind(err), strconv.FormatBool(handled)).Inc()
}

// Flushed implements runtime.Observer.
func (m *Metrics) Flushed(pending int) {
	m.framesTotal.Inc()
	m.pendingRoots.Set(float64(pending))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// errorKind labels err by where it was raised; errors that do not come
// from a component are "scheduler".
func errorKind(err error) string {
	var rerr *runtime.Error
	if errors.As(err, &rerr) {
		return rerr.Kind.String()
	}
	return "scheduler"
}
