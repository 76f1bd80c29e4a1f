package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/loom/internal/profile"
	"github.com/vango-dev/loom/pkg/observe"
	"github.com/vango-dev/loom/pkg/runtime"
	"github.com/vango-dev/loom/pkg/vtest"
)

// session is a vtest.Session observed by a profile recorder and
// Prometheus metrics on a private registry.
type session struct {
	*vtest.Session
	recorder *profile.Recorder
	registry *prometheus.Registry
}

// newSession creates a session whose observers are the profile recorder,
// the metrics, the tracer when tracing is enabled, and any extra
// observers.
func (e *env) newSession(name string, extra ...runtime.Observer) *session {
	s := &session{
		recorder: profile.NewRecorder(name),
		registry: prometheus.NewRegistry(),
	}

	observers := runtime.MultiObserver{s.recorder, e.metrics(s.registry)}
	if e.cfg.Tracing.Enabled {
		observers = append(observers, observe.NewTracer(observe.WithTracerName(e.cfg.Tracing.Service)))
	}
	observers = append(observers, extra...)

	s.Session = vtest.NewSession(e.cfg.RuntimeConfig(e.logger.With("scenario", name), observers))
	return s
}

func (e *env) metrics(reg prometheus.Registerer) *observe.Metrics {
	opts := []observe.MetricsOption{
		observe.WithRegistry(reg),
		observe.WithNamespace(e.cfg.Metrics.Namespace),
		observe.WithSubsystem(e.cfg.Metrics.Subsystem),
	}
	if len(e.cfg.Metrics.Buckets) > 0 {
		opts = append(opts, observe.WithBuckets(e.cfg.Metrics.Buckets))
	}
	return observe.NewMetrics(opts...)
}
