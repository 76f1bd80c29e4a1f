package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNilRejection replaces a nil error passed to Reject.
var ErrNilRejection = errors.New("async: future rejected without an error")

// State is the settlement state of a Future.
type State uint8

const (
	StatePending State = iota
	StateFulfilled
	StateRejected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFulfilled:
		return "fulfilled"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type waiter struct {
	// loop receives fn as a microtask. A nil loop means fn runs
	// synchronously inside Resolve or Reject.
	loop *Loop
	fn   func(any, error)
}

// Future is a value that becomes available later. It settles exactly once,
// either fulfilled with a value or rejected with an error.
type Future struct {
	mu      sync.Mutex
	state   State
	value   any
	err     error
	waiters []waiter
	done    chan struct{}
}

// NewFuture returns a pending future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future already fulfilled with v.
func Resolved(v any) *Future {
	f := NewFuture()
	f.Resolve(v)
	return f
}

// Rejected returns a future already rejected with err.
func Rejected(err error) *Future {
	f := NewFuture()
	f.Reject(err)
	return f
}

// Resolve fulfills the future. It reports false if the future had already
// settled.
func (f *Future) Resolve(v any) bool {
	return f.settle(StateFulfilled, v, nil)
}

// Reject rejects the future. It reports false if the future had already
// settled.
func (f *Future) Reject(err error) bool {
	if err == nil {
		err = ErrNilRejection
	}
	return f.settle(StateRejected, nil, err)
}

func (f *Future) settle(state State, v any, err error) bool {
	f.mu.Lock()
	if f.state != StatePending {
		f.mu.Unlock()
		return false
	}
	f.state, f.value, f.err = state, v, err
	waiters := f.waiters
	f.waiters = nil
	close(f.done)
	f.mu.Unlock()

	for _, w := range waiters {
		w.dispatch(v, err)
	}
	return true
}

func (w waiter) dispatch(v any, err error) {
	if w.loop == nil {
		w.fn(v, err)
		return
	}
	fn := w.fn
	w.loop.Microtask(func() { fn(v, err) })
}

// Await runs fn on l as a microtask once the future settles. If it already
// has, fn is still deferred to a microtask, never called inline.
func (f *Future) Await(l *Loop, fn func(v any, err error)) {
	f.subscribe(waiter{loop: l, fn: fn})
}

// onSettle runs fn synchronously when the future settles, or immediately
// if it already has.
func (f *Future) onSettle(fn func(v any, err error)) {
	f.subscribe(waiter{fn: fn})
}

func (f *Future) subscribe(w waiter) {
	f.mu.Lock()
	if f.state == StatePending {
		f.waiters = append(f.waiters, w)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	w.dispatch(v, err)
}

// State returns the settlement state.
func (f *Future) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Settled reports whether the future is no longer pending.
func (f *Future) Settled() bool {
	return f.State() != StatePending
}

// Result returns the value and error. Both are zero while pending.
func (f *Future) Result() (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Done is closed when the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is done. It must not be
// called from the goroutine driving the loop that settles the future.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// All returns a future fulfilled with the values of fs, in order, once all
// of them are fulfilled, or rejected with the first rejection. Nil entries
// count as fulfilled with nil.
func All(fs ...*Future) *Future {
	out := NewFuture()
	values := make([]any, len(fs))
	remaining := len(fs)
	if remaining == 0 {
		out.Resolve(values)
		return out
	}

	var mu sync.Mutex
	for i, f := range fs {
		if f == nil {
			mu.Lock()
			remaining--
			last := remaining == 0
			mu.Unlock()
			if last {
				out.Resolve(values)
			}
			continue
		}
		i := i
		f.onSettle(func(v any, err error) {
			if err != nil {
				out.Reject(err)
				return
			}
			mu.Lock()
			values[i] = v
			remaining--
			last := remaining == 0
			mu.Unlock()
			if last {
				out.Resolve(values)
			}
		})
	}
	return out
}

// Go runs fn on a new goroutine with the loop context and settles the
// returned future on the loop. A panic in fn rejects the future.
func Go(l *Loop, fn func(ctx context.Context) (any, error)) *Future {
	f := NewFuture()
	go func() {
		v, err := func() (v any, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("async: panic: %v", r)
				}
			}()
			return fn(l.Context())
		}()
		if postErr := l.Post(func() {
			if err != nil {
				f.Reject(err)
				return
			}
			f.Resolve(v)
		}); postErr != nil {
			f.Reject(postErr)
		}
	}()
	return f
}
