// Package vtest provides helpers for driving loom components in tests and
// tools.
//
// A Session is one App rendering into an in-memory vdom.Document. Its loop
// is driven by hand: every step posts a task and drains the loop, so a
// step returns only once every render and commit it caused has settled.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    s := vtest.Mount(t, Counter, nil)
//	    vtest.Click(t, s, "inc")
//	    vtest.ExpectText(t, s, "count", "1")
//	}
//
// # Error-returning API
//
// The Session methods return errors instead of failing a test, for use
// outside of testing:
//
//	s := vtest.NewSession(runtime.DefaultConfig())
//	defer s.Close()
//	if err := s.Mount(Counter, nil); err != nil {
//	    return err
//	}
//	if err := s.Click("inc"); err != nil {
//	    return err
//	}
//	return s.ExpectText("count", "1")
package vtest
