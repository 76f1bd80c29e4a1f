package async

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var (
	// ErrLoopClosed is returned when posting to a loop after Close.
	ErrLoopClosed = errors.New("async: loop closed")

	// ErrReentrantRun is returned when Run or RunUntilIdle is called from a
	// callback already executing on the loop.
	ErrReentrantRun = errors.New("async: loop is already running")
)

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLogger sets the logger used for recovered panics.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithPanicHandler installs a function called with the value of every panic
// recovered from a loop callback, after it has been logged.
func WithPanicHandler(fn func(any)) LoopOption {
	return func(l *Loop) {
		l.onPanic = fn
	}
}

// Loop is a cooperative event loop. See the package documentation for the
// queue semantics.
type Loop struct {
	mu         sync.Mutex
	tasks      []func()
	microtasks []func()
	frames     []func()
	closed     bool

	// wake is signalled when work arrives while Run is waiting.
	wake chan struct{}

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	logger  *slog.Logger
	onPanic func(any)

	executed atomic.Uint64
}

// NewLoop creates an idle loop.
func NewLoop(opts ...LoopOption) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Context is cancelled when the loop is closed. Work started with Go
// receives it.
func (l *Loop) Context() context.Context {
	return l.ctx
}

// Post queues fn as a task. Safe to call from any goroutine.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
	return nil
}

// Microtask queues fn to run before the next task. It is meant for code
// running on the loop; calls from elsewhere are accepted but lose ordering
// guarantees relative to the loop's own work.
func (l *Loop) Microtask(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.microtasks = append(l.microtasks, fn)
	l.mu.Unlock()
	l.signal()
}

// RequestFrame queues fn for the next frame. Callers that want a single
// callback per frame must coalesce their own requests.
func (l *Loop) RequestFrame(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.frames = append(l.frames, fn)
	l.mu.Unlock()
	l.signal()
}

// Executed returns how many callbacks the loop has run.
func (l *Loop) Executed() uint64 {
	return l.executed.Load()
}

// Idle reports whether every queue is empty.
func (l *Loop) Idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) == 0 && len(l.microtasks) == 0 && len(l.frames) == 0
}

// RunUntilIdle runs queued work on the calling goroutine until every queue
// is empty, including work queued along the way. It returns the number of
// callbacks executed.
func (l *Loop) RunUntilIdle() (int, error) {
	if !l.running.CompareAndSwap(false, true) {
		return 0, ErrReentrantRun
	}
	defer l.running.Store(false)
	return l.drain(), nil
}

// Run serves the loop until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrReentrantRun
	}
	defer l.running.Store(false)

	for {
		l.drain()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

// Close stops accepting work, drops whatever is still queued and cancels
// the loop context.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.tasks = nil
	l.microtasks = nil
	l.frames = nil
	l.mu.Unlock()
	l.cancel()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) drain() int {
	n := 0
	for {
		n += l.runMicrotasks()

		if task, ok := l.nextTask(); ok {
			l.execute(task)
			n++
			continue
		}

		frames := l.takeFrames()
		if len(frames) == 0 {
			return n
		}
		for _, fn := range frames {
			l.execute(fn)
			n++
			n += l.runMicrotasks()
		}
	}
}

func (l *Loop) runMicrotasks() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.microtasks) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		l.mu.Unlock()

		l.execute(fn)
		n++
	}
}

func (l *Loop) nextTask() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil, false
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return fn, true
}

func (l *Loop) takeFrames() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	frames := l.frames
	l.frames = nil
	return frames
}

// execute runs fn, recovering panics so one bad callback cannot stop the
// loop.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop callback panic",
				"panic", r,
				"stack", string(debug.Stack()))
			if l.onPanic != nil {
				l.onPanic(r)
			}
		}
	}()
	l.executed.Add(1)
	fn()
}
