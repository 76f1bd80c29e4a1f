package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/loom/pkg/runtime"
)

type recordedSpan struct {
	noop.Span
	name   string
	start  time.Time
	end    time.Time
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordedSpan) End(opts ...trace.SpanEndOption) {
	s.ended = true
	cfg := trace.NewSpanEndConfig(opts...)
	s.end = cfg.Timestamp()
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) { s.status = code }

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

type recordingTracer struct {
	embedded.Tracer
	spans []*recordedSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{name: name, start: cfg.Timestamp(), attrs: map[attribute.Key]attribute.Value{}}
	for _, kv := range cfg.Attributes() {
		s.attrs[kv.Key] = kv.Value
	}
	r.spans = append(r.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

func TestTracerRenderSpan(t *testing.T) {
	rec := &recordingTracer{}
	tr := NewTracer(WithTracer(rec))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tr.FiberRendered(runtime.RenderInfo{Component: "counter", NodeID: 7, Deep: true, Start: start, Duration: time.Second})

	if len(rec.spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(rec.spans))
	}
	s := rec.spans[0]
	if s.name != "loom.render" || !s.ended {
		t.Errorf("unexpected span %q ended=%v", s.name, s.ended)
	}
	if !s.start.Equal(start) || !s.end.Equal(start.Add(time.Second)) {
		t.Errorf("expected recorded timestamps, got %v to %v", s.start, s.end)
	}
	if s.attrs["loom.component"].AsString() != "counter" || s.attrs["loom.node_id"].AsInt64() != 7 {
		t.Errorf("unexpected attributes %v", s.attrs)
	}
	if s.status != codes.Ok {
		t.Errorf("expected ok status, got %v", s.status)
	}
}

func TestTracerCommitErrorSetsStatus(t *testing.T) {
	rec := &recordingTracer{}
	tr := NewTracer(WithTracer(rec))

	tr.RootCompleted(runtime.CommitInfo{Component: "app", Mount: true, Err: errors.New("detached")})

	s := rec.spans[0]
	if s.name != "loom.mount" {
		t.Errorf("expected loom.mount, got %s", s.name)
	}
	if s.status != codes.Error || len(s.errs) != 1 {
		t.Errorf("expected error status with recorded error, got %v %v", s.status, s.errs)
	}
}

func TestTracerSkipRenders(t *testing.T) {
	rec := &recordingTracer{}
	tr := NewTracer(WithTracer(rec), WithSkipRenders(true))

	tr.FiberRendered(runtime.RenderInfo{Component: "a"})
	tr.RootDropped("a", runtime.DropDestroyed)
	tr.ErrorRaised("a", errors.New("handled"), true)
	tr.Flushed(3)

	if len(rec.spans) != 2 {
		t.Fatalf("expected drop and error spans, got %d", len(rec.spans))
	}
	if rec.spans[0].attrs["loom.drop_reason"].AsString() != "destroyed" {
		t.Errorf("unexpected drop span %v", rec.spans[0].attrs)
	}
	if rec.spans[1].status == codes.Error {
		t.Error("handled errors should not mark the span as failed")
	}
}

func TestTracerDefaultsToGlobalProvider(t *testing.T) {
	tr := NewTracer()
	if tr.tracer == nil {
		t.Fatal("expected a tracer from the global provider")
	}
	// The global provider is a no-op until configured.
	tr.FiberRendered(runtime.RenderInfo{Component: "x"})
}
