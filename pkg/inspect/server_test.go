package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/loom/pkg/async"
	"github.com/vango-dev/loom/pkg/observe"
	"github.com/vango-dev/loom/pkg/reactive"
	"github.com/vango-dev/loom/pkg/runtime"
	"github.com/vango-dev/loom/pkg/vdom"
)

type fixture struct {
	t      *testing.T
	loop   *async.Loop
	app    *runtime.App
	doc    *vdom.Document
	hub    *Hub
	server *Server
	srv    *httptest.Server
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var counter = runtime.Define("counter", func(n *runtime.Node) runtime.RenderFunc {
	count := reactive.NewSignal(n.Graph(), 0)
	inc := func() { count.Update(func(v int) int { return v + 1 }) }
	return func(*runtime.RenderContext) (runtime.OutputNode, error) {
		return vdom.NewBlock(vdom.Button(vdom.ID("inc"), vdom.OnClick(inc), vdom.Textf("%d", count.Get()))), nil
	}
})

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := quietLogger()
	ctx, cancel := context.WithCancel(context.Background())

	loop := async.NewLoop(async.WithLogger(logger))
	go loop.Run(ctx)

	hub := NewHub(64, logger)
	go hub.Run(ctx)

	reg := prometheus.NewRegistry()
	rcfg := runtime.DefaultConfig()
	rcfg.Logger = logger
	rcfg.SlowHookWarning = 0
	rcfg.Observer = runtime.MultiObserver{hub, observe.NewMetrics(observe.WithRegistry(reg))}

	fx := &fixture{
		t:    t,
		loop: loop,
		app:  runtime.New(loop, rcfg),
		doc:  vdom.NewDocument(),
		hub:  hub,
	}
	fx.server = New(fx.app, &Config{Document: fx.doc, Gatherer: reg, Logger: logger, Hub: hub})
	fx.srv = httptest.NewServer(fx.server.Handler())
	t.Cleanup(func() {
		fx.srv.Close()
		hub.Close()
		cancel()
		loop.Close()
	})

	mounted := fx.onLoop(func() any {
		return fx.app.Mount(counter, nil, fx.doc.Body(), runtime.LastChild)
	}).(*async.Future)
	waitCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	if _, err := mounted.Wait(waitCtx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	return fx
}

// onLoop runs fn on the app loop and returns its result.
func (fx *fixture) onLoop(fn func() any) any {
	fx.t.Helper()
	out := make(chan any, 1)
	if err := fx.loop.Post(func() { out <- fn() }); err != nil {
		fx.t.Fatalf("post: %v", err)
	}
	select {
	case v := <-out:
		return v
	case <-time.After(2 * time.Second):
		fx.t.Fatal("loop did not run the task")
		return nil
	}
}

func (fx *fixture) get(path string) (int, string) {
	fx.t.Helper()
	resp, err := http.Get(fx.srv.URL + path)
	if err != nil {
		fx.t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func (fx *fixture) post(path string) int {
	fx.t.Helper()
	resp, err := http.Post(fx.srv.URL+path, "text/plain", nil)
	if err != nil {
		fx.t.Fatalf("POST %s: %v", path, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func (fx *fixture) buttonHID() string {
	return fx.onLoop(func() any { return fx.doc.GetElementByID("inc").HID() }).(string)
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHealthz(t *testing.T) {
	fx := newFixture(t)
	if code, body := fx.get("/healthz"); code != http.StatusOK || body != "OK" {
		t.Errorf("got %d %q", code, body)
	}
}

func TestSnapshot(t *testing.T) {
	fx := newFixture(t)

	code, body := fx.get("/snapshot")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	var snap runtime.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Root == nil || snap.Root.Component != "counter" || snap.Root.Status != "mounted" {
		t.Errorf("unexpected snapshot %+v", snap.Root)
	}
	if snap.Pending != 0 {
		t.Errorf("expected no pending roots, got %d", snap.Pending)
	}
}

func TestDispatchRendersThroughLoop(t *testing.T) {
	fx := newFixture(t)

	if _, body := fx.get("/html"); body != `<button id="inc">0</button>` {
		t.Fatalf("unexpected html %s", body)
	}
	if code := fx.post("/dispatch/" + fx.buttonHID() + "/click"); code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", code)
	}
	eventually(t, func() bool {
		_, body := fx.get("/html")
		return body == `<button id="inc">1</button>`
	})
}

func TestDispatchErrors(t *testing.T) {
	fx := newFixture(t)

	if code := fx.post("/dispatch/h999/click"); code != http.StatusNotFound {
		t.Errorf("unknown node: expected 404, got %d", code)
	}
	if code := fx.post("/dispatch/" + fx.buttonHID() + "/keydown"); code != http.StatusUnprocessableEntity {
		t.Errorf("missing handler: expected 422, got %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	fx := newFixture(t)

	code, body := fx.get("/metrics")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(body, `loom_commits_total{kind="mount",result="ok"} 1`) {
		t.Errorf("expected mount commit in metrics, got:\n%s", body)
	}
}

func TestEventsStream(t *testing.T) {
	fx := newFixture(t)

	url := "ws" + strings.TrimPrefix(fx.srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	eventually(t, func() bool { return fx.hub.ClientCount() == 1 })

	fx.post("/dispatch/" + fx.buttonHID() + "/click")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("no commit event received: %v", err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Type == EventCommit && !ev.Mount {
			if ev.Component != "counter" {
				t.Errorf("expected counter commit, got %+v", ev)
			}
			return
		}
	}
}

func TestHTMLWithoutDocument(t *testing.T) {
	loop := async.NewLoop(async.WithLogger(quietLogger()))
	t.Cleanup(loop.Close)
	s := New(runtime.New(loop, nil), &Config{Logger: quietLogger()})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/html", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestNewLeavesConfigUntouched(t *testing.T) {
	loop := async.NewLoop(async.WithLogger(quietLogger()))
	t.Cleanup(loop.Close)
	app := runtime.New(loop, nil)
	cfg := &Config{Logger: quietLogger()}

	a := New(app, cfg)
	b := New(app, cfg)

	if cfg.Hub != nil || cfg.Gatherer != nil || cfg.Timeout != 0 {
		t.Errorf("New wrote defaults into the caller's config: %+v", cfg)
	}
	if a.Hub() == nil || a.Hub() == b.Hub() {
		t.Errorf("expected each server to get its own hub")
	}
}

func TestOnLoopPanicRejects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := async.NewLoop(async.WithLogger(quietLogger()))
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		loop.Close()
	})
	s := New(runtime.New(loop, nil), &Config{Logger: quietLogger(), Timeout: 10 * time.Second})

	start := time.Now()
	_, err := s.onLoop(context.Background(), func() (any, error) {
		panic("render exploded")
	})
	var pe *runtime.PanicError
	if !errors.As(err, &pe) || pe.Value != "render exploded" {
		t.Fatalf("expected the panic as an error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("expected a prompt failure, waited %s", elapsed)
	}

	v, err := s.onLoop(context.Background(), func() (any, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Errorf("expected the loop to keep serving, got (%v, %v)", v, err)
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub(1, quietLogger())
	h.Flushed(0)
	h.Flushed(0)
	if h.Dropped() != 1 {
		t.Errorf("expected 1 dropped event, got %d", h.Dropped())
	}
}
