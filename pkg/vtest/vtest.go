package vtest

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/loom/pkg/runtime"
)

// QuietConfig returns a runtime configuration that discards logs and
// disables the slow hook warning.
func QuietConfig() *runtime.Config {
	cfg := runtime.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.SlowHookWarning = 0
	return cfg
}

// Mount creates a quiet session, mounts def and fails the test if the
// mount does not commit. The session is closed when the test ends.
//
// Example:
//
//	s := vtest.Mount(t, Counter, runtime.Props{"start": 3})
func Mount(t testing.TB, def *runtime.Definition, props runtime.Props) *Session {
	t.Helper()
	return MountWith(t, QuietConfig(), def, props)
}

// MountWith is Mount with an explicit runtime configuration.
func MountWith(t testing.TB, cfg *runtime.Config, def *runtime.Definition, props runtime.Props) *Session {
	t.Helper()
	s := NewSession(cfg)
	t.Cleanup(s.Close)
	if err := s.Mount(def, props); err != nil {
		t.Fatalf("mount %s: %v", def.Name(), err)
	}
	return s
}

// Do runs fn on the loop and fails the test if the loop is closed.
func Do(t testing.TB, s *Session, fn func()) {
	t.Helper()
	if err := s.Do(fn); err != nil {
		t.Fatalf("do: %v", err)
	}
}

// Click clicks the element with the given id.
//
// Example:
//
//	vtest.Click(t, s, "inc")
func Click(t testing.TB, s *Session, id string) {
	t.Helper()
	if err := s.Click(id); err != nil {
		t.Fatalf("click #%s: %v", id, err)
	}
}

// ExpectText asserts the text content of the element with the given id.
//
// Example:
//
//	vtest.ExpectText(t, s, "count", "1")
func ExpectText(t testing.TB, s *Session, id, want string) {
	t.Helper()
	if err := s.ExpectText(id, want); err != nil {
		t.Error(err)
	}
}

// ExpectContains asserts that the document contains expected.
//
// Example:
//
//	vtest.ExpectContains(t, s, "Welcome")
func ExpectContains(t testing.TB, s *Session, expected string) {
	t.Helper()
	html := s.HTML()
	if !strings.Contains(html, expected) {
		t.Errorf("expected document to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the document does not contain unexpected.
func ExpectNotContains(t testing.TB, s *Session, unexpected string) {
	t.Helper()
	html := s.HTML()
	if strings.Contains(html, unexpected) {
		t.Errorf("expected document to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that the document contains a tag.
func ExpectElement(t testing.TB, s *Session, tag string) {
	t.Helper()
	html := s.HTML()
	if !strings.Contains(html, "<"+tag) {
		t.Errorf("expected document to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
