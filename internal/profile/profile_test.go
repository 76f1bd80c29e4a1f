package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/loom/pkg/runtime"
)

func TestRecorder(t *testing.T) {
	rec := NewRecorder("counter")
	if _, err := uuid.Parse(rec.ID()); err != nil {
		t.Fatalf("ID %q is not a uuid: %v", rec.ID(), err)
	}

	start := time.Now()
	rec.FiberRendered(runtime.RenderInfo{Component: "App", Duration: 2 * time.Millisecond, Deep: true})
	rec.FiberRendered(runtime.RenderInfo{Component: "App", Duration: 4 * time.Millisecond})
	rec.FiberRendered(runtime.RenderInfo{Component: "Item", Duration: time.Millisecond, Err: errors.New("boom")})
	rec.RootCompleted(runtime.CommitInfo{Component: "App", NodeID: 1, Mount: true, Start: start, Duration: time.Millisecond})
	rec.RootCompleted(runtime.CommitInfo{Component: "Item", NodeID: 2, Err: errors.New("boom")})
	rec.RootDropped("Item", runtime.DropSuperseded)
	rec.RootDropped("Item", runtime.DropSuperseded)
	rec.ErrorRaised("Item", errors.New("boom"), true)
	rec.Flushed(3)

	p := rec.Finish()
	if p.Scenario != "counter" {
		t.Errorf("Scenario = %q", p.Scenario)
	}
	if p.Ended.Before(p.Started) {
		t.Error("Ended before Started")
	}
	if got := p.Renders(); got != 3 {
		t.Errorf("Renders() = %d, want 3", got)
	}

	app := p.Components["App"]
	if app.Renders != 2 || app.DeepRender != 1 || app.Max != 4*time.Millisecond {
		t.Errorf("App stats = %+v", app)
	}
	if app.Mean() != 3*time.Millisecond {
		t.Errorf("App mean = %v, want 3ms", app.Mean())
	}
	if p.Components["Item"].Errors != 1 {
		t.Errorf("Item errors = %d, want 1", p.Components["Item"].Errors)
	}

	if len(p.Commits) != 2 || !p.Commits[0].Mount || p.Commits[1].Error != "boom" {
		t.Errorf("Commits = %+v", p.Commits)
	}
	if p.Drops[runtime.DropSuperseded.String()] != 2 {
		t.Errorf("Drops = %v", p.Drops)
	}
	if len(p.Errors) != 1 || !p.Errors[0].Handled {
		t.Errorf("Errors = %+v", p.Errors)
	}
	if p.Frames != 1 {
		t.Errorf("Frames = %d, want 1", p.Frames)
	}
}

func TestComponentNamesSlowestFirst(t *testing.T) {
	p := &Profile{Components: map[string]*ComponentStats{
		"b":    {Total: time.Millisecond},
		"a":    {Total: time.Millisecond},
		"slow": {Total: time.Second},
	}}
	got := p.ComponentNames()
	want := []string{"slow", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ComponentNames() = %v, want %v", got, want)
		}
	}
}

func TestMeanWithoutRenders(t *testing.T) {
	var s ComponentStats
	if s.Mean() != 0 {
		t.Errorf("Mean() = %v, want 0", s.Mean())
	}
}
