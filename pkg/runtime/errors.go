package runtime

import (
	"fmt"
	"runtime/debug"

	lerrors "github.com/vango-dev/loom/internal/errors"
)

var (
	// ErrTargetDetached is raised when a mount fiber completes against a
	// target that is no longer attached.
	ErrTargetDetached = lerrors.New("L001")

	// ErrCancelledFiber is raised when a superseded fiber is asked to
	// render.
	ErrCancelledFiber = lerrors.New("L002")

	// ErrAppDestroyed rejects render requests on a destroyed application.
	ErrAppDestroyed = lerrors.New("L003")

	// ErrAlreadyMounted is returned by a second Mount on the same App.
	ErrAlreadyMounted = lerrors.New("L005")
)

// ErrorKind classifies where an error was raised.
type ErrorKind uint8

const (
	// KindHook errors come from lifecycle hooks.
	KindHook ErrorKind = iota
	// KindRender errors come from render functions.
	KindRender
	// KindCommit errors come from applying output or from post-commit hooks.
	KindCommit
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindHook:
		return "hook"
	case KindRender:
		return "render"
	case KindCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Error wraps a failure raised while running a component.
type Error struct {
	Kind      ErrorKind
	Component string
	Hook      string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Hook != "" {
		return fmt.Sprintf("runtime: %s %s in %s: %v", e.Kind, e.Hook, e.Component, e.Err)
	}
	return fmt.Sprintf("runtime: %s error in %s: %v", e.Kind, e.Component, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// PanicError carries a recovered panic value that was not an error.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// capture runs fn and turns a panic into a *PanicError.
func capture(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}

// newError builds an Error, keeping an *Error that is already in place.
func newError(kind ErrorKind, n *Node, hook string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	name := ""
	if n != nil {
		name = n.Name()
	}
	return &Error{Kind: kind, Component: name, Hook: hook, Err: err}
}
