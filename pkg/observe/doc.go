// Package observe turns scheduler events into Prometheus metrics and
// OpenTelemetry spans.
//
// Both Metrics and Tracer implement runtime.Observer. Combine them, and
// any other observer, with runtime.MultiObserver:
//
//	metrics := observe.NewMetrics(observe.WithRegistry(reg))
//	tracer := observe.NewTracer(observe.WithTracerName("my-app"))
//	cfg := runtime.DefaultConfig()
//	cfg.Observer = runtime.MultiObserver{metrics, tracer}
//	app := runtime.New(loop, cfg)
//
// Metrics collected:
//   - loom_renders_total: Counter of render invocations by component and result
//   - loom_render_duration_seconds: Histogram of render duration by component
//   - loom_commits_total: Counter of completed root fibers by kind (mount, patch)
//   - loom_commit_duration_seconds: Histogram of commit duration
//   - loom_roots_dropped_total: Counter of discarded root fibers by reason
//   - loom_errors_total: Counter of component errors by kind and outcome
//   - loom_pending_roots: Gauge of root fibers still waiting after a frame
//   - loom_frames_total: Counter of processed frames
package observe
