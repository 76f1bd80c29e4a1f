package vtest

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vango-dev/loom/pkg/async"
	"github.com/vango-dev/loom/pkg/runtime"
	"github.com/vango-dev/loom/pkg/vdom"
)

// Common errors for session operations.
var (
	ErrNoElement   = errors.New("vtest: no element with that id")
	ErrMountStuck  = errors.New("vtest: mount did not complete")
	ErrTextMissing = errors.New("vtest: unexpected text")
)

// Session is an App mounted into an in-memory document.
type Session struct {
	Loop *async.Loop
	App  *runtime.App
	Doc  *vdom.Document
}

// NewSession creates a session. A nil cfg uses runtime.DefaultConfig.
func NewSession(cfg *runtime.Config) *Session {
	if cfg == nil {
		cfg = runtime.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loop := async.NewLoop(async.WithLogger(logger))
	return &Session{
		Loop: loop,
		App:  runtime.New(loop, cfg),
		Doc:  vdom.NewDocument(),
	}
}

// Do runs fn as a loop task and drains the loop.
func (s *Session) Do(fn func()) error {
	if err := s.Loop.Post(fn); err != nil {
		return err
	}
	_, err := s.Loop.RunUntilIdle()
	return err
}

// Mount mounts def at the end of the document body and waits for the
// first commit. Mounts that wait on hooks settled outside the loop return
// ErrMountStuck.
func (s *Session) Mount(def *runtime.Definition, props runtime.Props) error {
	var f *async.Future
	if err := s.Do(func() {
		f = s.App.Mount(def, props, s.Doc.Body(), runtime.LastChild)
	}); err != nil {
		return err
	}
	if !f.Settled() {
		return fmt.Errorf("%w: %s", ErrMountStuck, def.Name())
	}
	_, err := f.Result()
	return err
}

// Element returns the element with the given id attribute.
func (s *Session) Element(id string) (*vdom.Element, error) {
	el := s.Doc.GetElementByID(id)
	if el == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoElement, id)
	}
	return el, nil
}

// Dispatch fires event on the element with the given id and drains the
// loop.
func (s *Session) Dispatch(id, event, value string) error {
	el, err := s.Element(id)
	if err != nil {
		return err
	}
	var derr error
	if err := s.Do(func() { derr = el.Dispatch(event, value) }); err != nil {
		return err
	}
	return derr
}

// Click dispatches a click on the element with the given id.
func (s *Session) Click(id string) error {
	return s.Dispatch(id, "click", "")
}

// Text returns the text content of the element with the given id.
func (s *Session) Text(id string) (string, error) {
	el, err := s.Element(id)
	if err != nil {
		return "", err
	}
	return el.TextContent(), nil
}

// ExpectText checks the text content of the element with the given id.
func (s *Session) ExpectText(id, want string) error {
	got, err := s.Text(id)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: #%s: expected %q, got %q", ErrTextMissing, id, want, got)
	}
	return nil
}

// HTML returns the serialized document body content.
func (s *Session) HTML() string {
	return s.Doc.Body().InnerHTML()
}

// Close destroys the app and closes the loop.
func (s *Session) Close() {
	if !s.App.Destroyed() {
		_ = s.Do(s.App.Destroy)
	}
	s.Loop.Close()
}
