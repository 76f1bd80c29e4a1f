package runtime

import "time"

// DropReason tells why the scheduler discarded a root fiber.
type DropReason uint8

const (
	// DropSuperseded: the fiber stopped being a root (a render from above
	// absorbed it).
	DropSuperseded DropReason = iota
	// DropErrored: the fiber was flagged in error and will not commit.
	DropErrored
	// DropDestroyed: the node owning the fiber was destroyed.
	DropDestroyed
)

// String returns the reason name.
func (r DropReason) String() string {
	switch r {
	case DropSuperseded:
		return "superseded"
	case DropErrored:
		return "errored"
	case DropDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// CommitInfo describes one completed root fiber.
type CommitInfo struct {
	Component string
	NodeID    uint64
	Mount     bool
	Start     time.Time
	Duration  time.Duration
	Err       error
}

// RenderInfo describes one render function invocation.
type RenderInfo struct {
	Component string
	NodeID    uint64
	Deep      bool
	Start     time.Time
	Duration  time.Duration
	Err       error
}

// Observer receives scheduler events. Implementations run on the loop and
// must not block.
type Observer interface {
	FiberRendered(info RenderInfo)
	RootCompleted(info CommitInfo)
	RootDropped(component string, reason DropReason)
	ErrorRaised(component string, err error, handled bool)
	Flushed(pending int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) FiberRendered(RenderInfo)        {}
func (NopObserver) RootCompleted(CommitInfo)        {}
func (NopObserver) RootDropped(string, DropReason)  {}
func (NopObserver) ErrorRaised(string, error, bool) {}
func (NopObserver) Flushed(int)                     {}

// MultiObserver fans events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) FiberRendered(info RenderInfo) {
	for _, o := range m {
		o.FiberRendered(info)
	}
}

func (m MultiObserver) RootCompleted(info CommitInfo) {
	for _, o := range m {
		o.RootCompleted(info)
	}
}

func (m MultiObserver) RootDropped(component string, reason DropReason) {
	for _, o := range m {
		o.RootDropped(component, reason)
	}
}

func (m MultiObserver) ErrorRaised(component string, err error, handled bool) {
	for _, o := range m {
		o.ErrorRaised(component, err, handled)
	}
}

func (m MultiObserver) Flushed(pending int) {
	for _, o := range m {
		o.Flushed(pending)
	}
}
