package runtime

import (
	"github.com/vango-dev/loom/pkg/async"
)

// Scheduler batches completed units of work into frames. Roots registered
// while a frame is being processed wait for the next frame.
type Scheduler struct {
	app  *App
	loop *async.Loop

	tasks     []*RootFiber
	taskIndex map[*RootFiber]struct{}

	delayed   []*Fiber
	cancelled []*Node

	frameRequested bool
	processing     bool
	frames         int
}

func newScheduler(app *App, loop *async.Loop) *Scheduler {
	return &Scheduler{
		app:       app,
		loop:      loop,
		taskIndex: make(map[*RootFiber]struct{}),
	}
}

// Pending returns how many roots wait for a commit.
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}

// Delayed returns how many fibers wait for an ancestor to finish.
func (s *Scheduler) Delayed() int {
	return len(s.delayed)
}

// Frames returns how many frames the scheduler has processed.
func (s *Scheduler) Frames() int {
	return s.frames
}

func (s *Scheduler) addFiber(f *Fiber) {
	rf := f.root
	if rf == nil {
		return
	}
	if _, ok := s.taskIndex[rf]; ok {
		return
	}
	s.taskIndex[rf] = struct{}{}
	s.tasks = append(s.tasks, rf)
}

func (s *Scheduler) removeTask(rf *RootFiber) {
	if _, ok := s.taskIndex[rf]; !ok {
		return
	}
	delete(s.taskIndex, rf)
	for i, t := range s.tasks {
		if t == rf {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

func (s *Scheduler) delay(f *Fiber) {
	s.app.logger.Debug("render delayed until ancestor completes",
		"component", f.node.Name(),
		"node", f.node.id)
	s.delayed = append(s.delayed, f)
}

func (s *Scheduler) scheduleDestroy(n *Node) {
	s.cancelled = append(s.cancelled, n)
	s.requestFrame()
}

// flush retries delayed fibers and asks for a frame.
func (s *Scheduler) flush() {
	if len(s.delayed) > 0 {
		delayed := s.delayed
		s.delayed = nil
		for _, f := range delayed {
			if f.root != nil && f.node.status != StatusDestroyed && f.node.fiber == f {
				f.render()
			}
		}
	}
	s.requestFrame()
}

func (s *Scheduler) requestFrame() {
	if s.frameRequested {
		return
	}
	s.frameRequested = true
	s.loop.RequestFrame(s.processTasks)
}

func (s *Scheduler) processTasks() {
	if s.processing {
		return
	}
	s.processing = true
	s.frameRequested = false
	defer func() { s.processing = false }()
	s.frames++

	cancelled := s.cancelled
	s.cancelled = nil
	for _, n := range cancelled {
		n.destroyInternal()
	}

	snapshot := append([]*RootFiber(nil), s.tasks...)
	for _, rf := range snapshot {
		if _, ok := s.taskIndex[rf]; ok {
			s.processFiber(rf)
		}
	}
	for _, rf := range append([]*RootFiber(nil), s.tasks...) {
		if rf.node.status == StatusDestroyed {
			s.removeTask(rf)
		}
	}
	s.app.observer.Flushed(len(s.tasks))
}

func (s *Scheduler) processFiber(rf *RootFiber) {
	if rf.Fiber.root != rf {
		s.drop(rf, DropSuperseded)
		return
	}
	hasError := rf.err != nil
	if hasError && rf.counter != 0 {
		s.drop(rf, DropErrored)
		return
	}
	if rf.node.status == StatusDestroyed {
		s.drop(rf, DropDestroyed)
		return
	}
	if rf.counter == 0 {
		if !hasError {
			rf.complete()
		}
		switch {
		case rf.appliedToDom:
			s.removeTask(rf)
		case rf.err != nil:
			// Handled without a recovery render. A later render of the
			// node registers the root again through addFiber.
			s.drop(rf, DropErrored)
		}
	}
}

func (s *Scheduler) drop(rf *RootFiber, reason DropReason) {
	s.removeTask(rf)
	s.app.logger.Debug("root fiber dropped",
		"component", rf.node.Name(),
		"node", rf.node.id,
		"reason", reason.String())
	s.app.observer.RootDropped(rf.node.Name(), reason)
}
