package observe

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/loom/pkg/runtime"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsRecordRenders(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.FiberRendered(runtime.RenderInfo{Component: "counter", Duration: time.Millisecond})
	m.FiberRendered(runtime.RenderInfo{Component: "counter", Duration: time.Millisecond})
	m.FiberRendered(runtime.RenderInfo{Component: "counter", Err: errors.New("boom")})

	if got := metricCounterValue(t, m.rendersTotal.WithLabelValues("counter", "ok")); got != 2 {
		t.Errorf("renders_total(ok)=%v, want 2", got)
	}
	if got := metricCounterValue(t, m.rendersTotal.WithLabelValues("counter", "error")); got != 1 {
		t.Errorf("renders_total(error)=%v, want 1", got)
	}
	if got := metricHistogramCount(t, m.renderDuration.WithLabelValues("counter")); got != 3 {
		t.Errorf("render_duration count=%d, want 3", got)
	}
}

func TestMetricsRecordCommitsAndDrops(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.RootCompleted(runtime.CommitInfo{Component: "app", Mount: true})
	m.RootCompleted(runtime.CommitInfo{Component: "app"})
	m.RootDropped("app", runtime.DropSuperseded)
	m.Flushed(2)
	m.Flushed(0)

	if got := metricCounterValue(t, m.commitsTotal.WithLabelValues("mount", "ok")); got != 1 {
		t.Errorf("commits_total(mount)=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.commitsTotal.WithLabelValues("patch", "ok")); got != 1 {
		t.Errorf("commits_total(patch)=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.dropsTotal.WithLabelValues("superseded")); got != 1 {
		t.Errorf("roots_dropped_total=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.framesTotal); got != 2 {
		t.Errorf("frames_total=%v, want 2", got)
	}
	if got := metricGaugeValue(t, m.pendingRoots); got != 0 {
		t.Errorf("pending_roots=%v, want 0", got)
	}
}

func TestMetricsLabelErrorsByKind(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.ErrorRaised("list", &runtime.Error{Kind: runtime.KindRender, Err: errors.New("x")}, false)
	m.ErrorRaised("list", &runtime.Error{Kind: runtime.KindHook, Err: errors.New("y")}, true)
	m.ErrorRaised("list", runtime.ErrCancelledFiber, false)

	tests := []struct {
		kind, handled string
	}{
		{"render", "false"},
		{"hook", "true"},
		{"scheduler", "false"},
	}
	for _, tt := range tests {
		if got := metricCounterValue(t, m.errorsTotal.WithLabelValues(tt.kind, tt.handled)); got != 1 {
			t.Errorf("errors_total(%s,%s)=%v, want 1", tt.kind, tt.handled, got)
		}
	}
}

func TestMetricsOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(
		WithRegistry(reg),
		WithNamespace("ui"),
		WithSubsystem("sched"),
		WithConstLabels(prometheus.Labels{"app": "demo"}),
		WithBuckets([]float64{0.1, 1}),
	)
	m.Flushed(1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "ui_sched_frames_total" {
			found = true
			if l := f.GetMetric()[0].GetLabel(); len(l) != 1 || l[0].GetValue() != "demo" {
				t.Errorf("expected const label app=demo, got %v", l)
			}
		}
	}
	if !found {
		t.Error("expected ui_sched_frames_total to be registered")
	}
}
