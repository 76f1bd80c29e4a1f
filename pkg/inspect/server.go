package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/loom/pkg/async"
	"github.com/vango-dev/loom/pkg/runtime"
	"github.com/vango-dev/loom/pkg/vdom"
)

// ErrUnknownNode is returned by /dispatch when no host node has the HID.
var ErrUnknownNode = errors.New("inspect: unknown host node")

// Config configures the inspector.
type Config struct {
	// Document is the host tree the app renders into. /html and /dispatch
	// are disabled without it.
	Document *vdom.Document

	// Gatherer serves /metrics.
	// Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// Logger receives request errors.
	// Default: slog.Default()
	Logger *slog.Logger

	// Timeout bounds how long a request waits for the loop.
	// Default: 5s
	Timeout time.Duration

	// Hub streams scheduler events to /events. Install it as the runtime
	// observer before creating the App.
	// Default: a new hub holding 256 events
	Hub *Hub
}

// DefaultConfig returns the default inspector configuration.
func DefaultConfig() *Config {
	return &Config{
		Gatherer: prometheus.DefaultGatherer,
		Logger:   slog.Default(),
		Timeout:  5 * time.Second,
	}
}

// Server is the HTTP inspector for one App.
type Server struct {
	app    *runtime.App
	config *Config
	hub    *Hub
	router chi.Router
}

// New creates an inspector for app.
func New(app *runtime.App, cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	cfg = &c
	def := DefaultConfig()
	if cfg.Gatherer == nil {
		cfg.Gatherer = def.Gatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Hub == nil {
		cfg.Hub = NewHub(0, cfg.Logger)
	}

	s := &Server{
		app:    app,
		config: cfg,
		hub:    cfg.Hub,
	}
	s.router = s.routes()
	return s
}

// Observer returns the runtime.Observer that feeds /events.
func (s *Server) Observer() runtime.Observer {
	return s.hub
}

// Hub returns the event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go s.hub.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
		defer cancel()
		s.hub.Close()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/snapshot", s.handleSnapshot)
	r.Get("/html", s.handleHTML)
	r.Get("/events", s.hub.HandleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	r.Post("/dispatch/{hid}/{event}", s.handleDispatch)
	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	v, err := s.onLoop(r.Context(), func() (any, error) {
		return s.app.Snapshot(), nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	doc := s.config.Document
	if doc == nil {
		http.Error(w, "no document", http.StatusNotFound)
		return
	}
	v, err := s.onLoop(r.Context(), func() (any, error) {
		return doc.Body().InnerHTML(), nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(v.(string)))
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	doc := s.config.Document
	if doc == nil {
		http.Error(w, "no document", http.StatusNotFound)
		return
	}
	hid := chi.URLParam(r, "hid")
	event := chi.URLParam(r, "event")
	value := r.URL.Query().Get("value")

	_, err := s.onLoop(r.Context(), func() (any, error) {
		el := doc.FindByHID(hid)
		if el == nil {
			return nil, ErrUnknownNode
		}
		return nil, el.Dispatch(event, value)
	})
	switch {
	case errors.Is(err, ErrUnknownNode):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, vdom.ErrNoHandler):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case err != nil:
		s.fail(w, r, err)
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

// onLoop runs fn on the app loop and waits for its result.
func (s *Server) onLoop(ctx context.Context, fn func() (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	result := async.NewFuture()
	err := s.app.Loop().Post(func() {
		defer func() {
			if r := recover(); r != nil {
				result.Reject(&runtime.PanicError{Value: r, Stack: debug.Stack()})
			}
		}()
		v, err := fn()
		if err != nil {
			result.Reject(err)
			return
		}
		result.Resolve(v)
	})
	if err != nil {
		return nil, err
	}
	return result.Wait(ctx)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, async.ErrLoopClosed) {
		status = http.StatusServiceUnavailable
	}
	s.config.Logger.Error("inspect request failed", "path", r.URL.Path, "error", err)
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
