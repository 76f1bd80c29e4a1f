package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/loom/pkg/runtime"
)

// Default tracer name for loom applications.
const defaultTracerName = "loom"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "loom").
	TracerName string

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer

	// Context is the parent of every span (default: context.Background()).
	Context context.Context

	// SkipRenders disables one span per render invocation. Commits, drops
	// and errors are still traced.
	SkipRenders bool
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracer sets the tracer explicitly.
func WithTracer(t trace.Tracer) TracerOption {
	return func(c *TracerConfig) {
		c.Tracer = t
	}
}

// WithParentContext sets the parent context of every span.
func WithParentContext(ctx context.Context) TracerOption {
	return func(c *TracerConfig) {
		c.Context = ctx
	}
}

// WithSkipRenders disables render spans.
func WithSkipRenders(skip bool) TracerOption {
	return func(c *TracerConfig) {
		c.SkipRenders = skip
	}
}

func defaultTracerConfig() TracerConfig {
	return TracerConfig{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
}

// Tracer is a runtime.Observer that reports renders and commits as spans.
// Scheduler events arrive after the fact, so spans carry the recorded start
// and end timestamps.
//
// The tracer uses the global OpenTelemetry tracer provider unless WithTracer
// is given. Configure the provider in main() before mounting:
//
//	otel.SetTracerProvider(tp)
type Tracer struct {
	config TracerConfig
	tracer trace.Tracer
}

var _ runtime.Observer = (*Tracer)(nil)

// NewTracer creates the OpenTelemetry observer.
func NewTracer(opts ...TracerOption) *Tracer {
	config := defaultTracerConfig()
	for _, opt := range opts {
		opt(&config)
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer(config.TracerName)
	}
	return &Tracer{config: config, tracer: tracer}
}

// FiberRendered implements runtime.Observer.
func (t *Tracer) FiberRendered(info runtime.RenderInfo) {
	if t.config.SkipRenders {
		return
	}
	_, span := t.tracer.Start(t.config.Context, "loom.render",
		trace.WithTimestamp(info.Start),
		trace.WithAttributes(
			attribute.String("loom.component", info.Component),
			attribute.Int64("loom.node_id", int64(info.NodeID)),
			attribute.Bool("loom.deep", info.Deep),
		),
	)
	finish(span, info.Err)
	span.End(trace.WithTimestamp(info.Start.Add(info.Duration)))
}

// RootCompleted implements runtime.Observer.
func (t *Tracer) RootCompleted(info runtime.CommitInfo) {
	name := "loom.patch"
	if info.Mount {
		name = "loom.mount"
	}
	_, span := t.tracer.Start(t.config.Context, name,
		trace.WithTimestamp(info.Start),
		trace.WithAttributes(
			attribute.String("loom.component", info.Component),
			attribute.Int64("loom.node_id", int64(info.NodeID)),
		),
	)
	finish(span, info.Err)
	span.End(trace.WithTimestamp(info.Start.Add(info.Duration)))
}

// RootDropped implements runtime.Observer.
func (t *Tracer) RootDropped(component string, reason runtime.DropReason) {
	_, span := t.tracer.Start(t.config.Context, "loom.drop",
		trace.WithAttributes(
			attribute.String("loom.component", component),
			attribute.String("loom.drop_reason", reason.String()),
		),
	)
	span.End()
}

// ErrorRaised implements runtime.Observer.
func (t *Tracer) ErrorRaised(component string, err error, handled bool) {
	_, span := t.tracer.Start(t.config.Context, "loom.error",
		trace.WithAttributes(
			attribute.String("loom.component", component),
			attribute.String("loom.error_kind", errorKind(err)),
			attribute.Bool("loom.handled", handled),
		),
	)
	span.RecordError(err)
	if !handled {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Flushed implements runtime.Observer. Frames carry no timing of their own.
func (t *Tracer) Flushed(int) {}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
