package runtime

import (
	"log/slog"
	"time"

	"github.com/vango-dev/loom/pkg/async"
	"github.com/vango-dev/loom/pkg/reactive"
)

// Config holds configuration for an App.
type Config struct {
	// Logger receives slow hook warnings and unhandled errors.
	// Default: slog.Default().
	Logger *slog.Logger

	// Observer is notified of renders, commits, drops and errors.
	// Default: NopObserver.
	Observer Observer

	// SlowHookWarning is how long a willStart or willUpdateProps hook may
	// stay pending before a warning is logged. Zero disables the warning.
	// Default: 3 seconds.
	SlowHookWarning time.Duration

	// MaxFlushRounds bounds how often one reactive flush may drain its
	// queue. Default: reactive.DefaultMaxFlushRounds.
	MaxFlushRounds int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Logger:          slog.Default(),
		Observer:        NopObserver{},
		SlowHookWarning: 3 * time.Second,
		MaxFlushRounds:  reactive.DefaultMaxFlushRounds,
	}
}

// App owns a component tree, its reactive graph and its scheduler. All of
// its methods must be called on the loop it was created with.
type App struct {
	loop      *async.Loop
	graph     *reactive.Graph
	scheduler *Scheduler
	logger    *slog.Logger
	observer  Observer
	slowHook  time.Duration

	root        *Node
	mountFuture *async.Future
	destroyed   bool
	err         error
}

// New creates an App running on loop. A nil cfg uses DefaultConfig.
func New(loop *async.Loop, cfg *Config) *App {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	a := &App{
		loop:     loop,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		slowHook: cfg.SlowHookWarning,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.observer == nil {
		a.observer = NopObserver{}
	}
	rounds := cfg.MaxFlushRounds
	if rounds <= 0 {
		rounds = reactive.DefaultMaxFlushRounds
	}
	a.graph = reactive.NewGraph(
		reactive.WithScheduler(loop.Microtask),
		reactive.WithMaxFlushRounds(rounds),
	)
	a.scheduler = newScheduler(a, loop)
	return a
}

// Loop returns the loop the App runs on.
func (a *App) Loop() *async.Loop {
	return a.loop
}

// Graph returns the reactive graph shared by every node of the App.
func (a *App) Graph() *reactive.Graph {
	return a.graph
}

// Scheduler returns the frame scheduler.
func (a *App) Scheduler() *Scheduler {
	return a.scheduler
}

// Root returns the root node, or nil before Mount.
func (a *App) Root() *Node {
	return a.root
}

// Err returns the error that tore the App down, if any.
func (a *App) Err() error {
	return a.err
}

// Destroyed reports whether Destroy has run.
func (a *App) Destroyed() bool {
	return a.destroyed
}

// Mount creates the root node for def and mounts its first render into
// target. The future resolves with the root *Node after its mounted hooks
// have run, or is rejected with the error that tore the App down.
func (a *App) Mount(def *Definition, props Props, target Target, position Position) *async.Future {
	done := async.NewFuture()
	if a.destroyed {
		done.Reject(ErrAppDestroyed)
		return done
	}
	if a.root != nil {
		done.Reject(ErrAlreadyMounted)
		return done
	}

	var n *Node
	if err := capture(func() {
		n = newNode(a, def, props, nil, "")
	}); err != nil {
		done.Reject(newError(KindHook, nil, "setup", err))
		return done
	}
	a.root = n
	a.mountFuture = done

	resolved := false
	n.mounted = append(n.mounted, func() {
		resolved = true
		done.Resolve(n)
	})
	// last resort: runs after every handler the component registered
	n.errorHandlers = append([]ErrorHandler{func(err error) error {
		if !resolved {
			done.Reject(err)
		}
		return err
	}}, n.errorHandlers...)

	fiber := newMountFiber(n, target, position)
	a.scheduler.addFiber(&fiber.Fiber)
	n.initiateRender(&fiber.Fiber)
	return done
}

// Destroy tears the whole tree down. Pending render futures settle.
func (a *App) Destroy() {
	if a.destroyed {
		return
	}
	a.destroyed = true
	if a.root != nil {
		a.root.destroy()
		a.scheduler.processTasks()
	}
}

// fail tears the App down after an error nobody handled.
func (a *App) fail(n *Node, err error) {
	attrs := []any{"component", n.Name(), "error", err}
	var pe *PanicError
	if asPanic(err, &pe) {
		attrs = append(attrs, "stack", string(pe.Stack))
	}
	a.logger.Error("unhandled error, destroying application", attrs...)

	if a.err == nil {
		a.err = err
	}
	if cerr := capture(a.Destroy); cerr != nil {
		a.logger.Error("destroy after unhandled error failed", "error", cerr)
	}
	if a.mountFuture != nil {
		a.mountFuture.Reject(err)
	}
}

// watchSlowHook logs a warning when f is still pending after the
// configured delay.
func (a *App) watchSlowHook(n *Node, hook string, f *async.Future) {
	if a.slowHook <= 0 || f.Settled() {
		return
	}
	delay := a.slowHook
	timer := time.AfterFunc(delay, func() {
		_ = a.loop.Post(func() {
			if !f.Settled() && n.status < StatusCancelled {
				a.logger.Warn("lifecycle hook is still pending",
					"component", n.Name(),
					"hook", hook,
					"after", delay)
			}
		})
	})
	f.Await(a.loop, func(any, error) {
		timer.Stop()
	})
}
