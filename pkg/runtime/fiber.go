package runtime

import (
	"time"
)

// FiberKind discriminates root fibers from child fibers.
type FiberKind uint8

const (
	// FiberChild fibers render as part of an ancestor's root.
	FiberChild FiberKind = iota
	// FiberRoot fibers own a unit of work and commit it as a patch.
	FiberRoot
	// FiberMount fibers own the first render of an application and commit
	// it by mounting into a target.
	FiberMount
)

// String returns the kind name.
func (k FiberKind) String() string {
	switch k {
	case FiberChild:
		return "child"
	case FiberRoot:
		return "root"
	case FiberMount:
		return "mount"
	default:
		return "unknown"
	}
}

// Fiber is one render attempt of a node. It is replaced when a newer
// request for the same node arrives before it commits.
type Fiber struct {
	kind   FiberKind
	node   *Node
	parent *Fiber

	// root is the unit of work this fiber belongs to. It is nil once the
	// fiber has been superseded.
	root *RootFiber

	output    OutputNode
	rendered  bool
	rendering bool
	cancelled bool

	children    []*Fiber
	childrenMap *childMap

	appliedToDom bool
	deep         bool
	err          error
}

// Kind returns whether f is a child, root or mount fiber.
func (f *Fiber) Kind() FiberKind {
	return f.kind
}

// Node returns the node f renders.
func (f *Fiber) Node() *Node {
	return f.node
}

// Root returns the unit of work f belongs to, or nil when superseded.
func (f *Fiber) Root() *RootFiber {
	return f.root
}

// Rendered reports whether the render function has run for f.
func (f *Fiber) Rendered() bool {
	return f.rendered
}

// Err returns the error f is flagged with, if any.
func (f *Fiber) Err() error {
	return f.err
}

// RootFiber is a Fiber that owns a unit of work: it counts the fibers of
// its subtree that still have to render and commits them all at once.
type RootFiber struct {
	Fiber

	counter int
	locked  bool

	willPatch []*Fiber
	patched   []*Fiber
	mounted   []*Fiber

	// mount is set for the first render of an application.
	mount *mountSpec
}

type mountSpec struct {
	target   Target
	position Position
}

// Counter returns how many fibers of the subtree have not rendered yet.
func (rf *RootFiber) Counter() int {
	return rf.counter
}

// Locked reports whether the root is committing.
func (rf *RootFiber) Locked() bool {
	return rf.locked
}

func newRootFiber(n *Node) *RootFiber {
	rf := &RootFiber{counter: 1}
	rf.kind = FiberRoot
	rf.node = n
	rf.childrenMap = newChildMap()
	rf.root = rf
	return rf
}

func newMountFiber(n *Node, target Target, position Position) *RootFiber {
	rf := newRootFiber(n)
	rf.kind = FiberMount
	rf.mount = &mountSpec{target: target, position: position}
	return rf
}

func newChildFiber(n *Node, parent *Fiber) *Fiber {
	root := parent.root
	f := &Fiber{
		kind:        FiberChild,
		node:        n,
		parent:      parent,
		root:        root,
		deep:        parent.deep,
		childrenMap: newChildMap(),
	}
	root.setCounter(root.counter + 1)
	parent.children = append(parent.children, f)
	return f
}

// makeChildFiber supersedes whatever fiber n has and returns a new one
// under parent.
func makeChildFiber(n *Node, parent *Fiber) *Fiber {
	if current := n.fiber; current != nil {
		cancelFibers(current.children)
		current.root = nil
	}
	return newChildFiber(n, parent)
}

// makeRootFiber returns the fiber a fresh render request of n should use.
// An in-flight fiber is reused: its subtree is cancelled and its root
// counter adjusted so that it renders once more.
func makeRootFiber(n *Node) *Fiber {
	current := n.fiber
	if current == nil {
		rf := newRootFiber(n)
		if len(n.willPatch) > 0 {
			rf.willPatch = append(rf.willPatch, &rf.Fiber)
		}
		if len(n.patched) > 0 {
			rf.patched = append(rf.patched, &rf.Fiber)
		}
		return &rf.Fiber
	}

	root := current.root
	delta := 0
	if current.rendered {
		delta = 1
	}
	root.locked = true
	cancelled := cancelFibers(current.children)
	root.locked = false
	root.setCounter(root.counter + delta - cancelled)

	current.children = nil
	current.childrenMap = newChildMap()
	current.output = nil
	current.rendered = false

	if current.err != nil {
		current.err = nil
		root.err = nil
		current.appliedToDom = false
		if current.kind != FiberChild {
			rf := current.root
			rf.mounted = nil
			if rf.mount != nil {
				rf.mounted = append(rf.mounted, current)
			}
		}
	}
	return current
}

// cancelFibers supersedes fibers and their descendants. It returns how
// many of them had not rendered yet.
func cancelFibers(fibers []*Fiber) int {
	count := 0
	for _, f := range fibers {
		n := f.node
		f.cancelled = true
		if n.status == StatusNew {
			n.cancel()
		}
		n.fiber = nil
		if f.rendered {
			n.forceNextRender = true
		} else {
			count++
		}
		count += cancelFibers(f.children)
	}
	return count
}

// render runs the node's render function once no ancestor of the unit of
// work is still rendering; otherwise the fiber waits for the next flush.
func (f *Fiber) render() {
	app := f.node.app
	if f.cancelled {
		app.logger.Error("render requested on a cancelled fiber",
			"component", f.node.Name(),
			"node", f.node.id)
		app.observer.ErrorRaised(f.node.Name(), ErrCancelledFiber, false)
		return
	}
	if f.root == nil {
		return
	}

	prev := f.root.node
	for current := prev.parent; current != nil; current = current.parent {
		if cf := current.fiber; cf != nil {
			root := cf.root
			if root != nil && root.counter == 0 && cf.childrenMap.has(prev.parentKey) {
				current = root.node
			} else {
				app.scheduler.delay(f)
				return
			}
		}
		prev = current
	}
	f.renderNow()
}

func (f *Fiber) renderNow() {
	n := f.node
	root := f.root
	if root == nil {
		return
	}
	app := n.app

	start := time.Now()
	f.rendered = true
	f.rendering = true
	out, err := n.invokeRender(f)
	f.rendering = false
	if err != nil {
		app.handleError(n, f, err)
	} else {
		f.output = out
	}
	app.observer.FiberRendered(RenderInfo{
		Component: n.Name(),
		NodeID:    n.id,
		Deep:      f.deep,
		Start:     start,
		Duration:  time.Since(start),
		Err:       err,
	})
	root.setCounter(root.counter - 1)
}

func (rf *RootFiber) setCounter(v int) {
	rf.counter = v
	if v == 0 {
		rf.node.app.scheduler.flush()
	}
}

// complete commits the unit of work.
func (rf *RootFiber) complete() {
	start := time.Now()
	var err error
	if rf.mount != nil {
		err = rf.completeMount()
	} else {
		err = rf.completePatch()
	}
	rf.node.app.observer.RootCompleted(CommitInfo{
		Component: rf.node.Name(),
		NodeID:    rf.node.id,
		Mount:     rf.mount != nil,
		Start:     start,
		Duration:  time.Since(start),
		Err:       err,
	})
}

func (rf *RootFiber) completePatch() error {
	n := rf.node
	rf.locked = true
	var current *Fiber

	err := capture(func() {
		for _, f := range rf.willPatch {
			current = f
			if f.node.fiber == f {
				runHooksReverse(f.node.willPatch)
			}
		}
		current = nil
		n.patchOutput()
		rf.locked = false

		for len(rf.mounted) > 0 {
			current = rf.pop(&rf.mounted)
			if current.appliedToDom {
				runHooks(current.node.mounted)
			}
		}
		for len(rf.patched) > 0 {
			current = rf.pop(&rf.patched)
			if current.appliedToDom {
				runHooks(current.node.patched)
			}
		}
	})
	if err != nil {
		rf.abortCommit(current, err)
	}
	return err
}

func (rf *RootFiber) completeMount() error {
	n := rf.node
	current := &rf.Fiber

	n.children = rf.childrenMap
	target := rf.mount.target
	if target == nil || !target.Attached() {
		rf.abortCommit(current, ErrTargetDetached)
		return ErrTargetDetached
	}

	err := capture(func() {
		if n.output != nil {
			n.updateOutput()
		} else {
			n.output = rf.output
			var anchor HostNode
			if rf.mount.position == FirstChild {
				anchor = target.FirstChild()
			}
			n.output.Mount(target, anchor)
		}
		n.fiber = nil
		n.status = StatusMounted
		rf.appliedToDom = true
		n.settleWaiters()

		for len(rf.mounted) > 0 {
			current = rf.pop(&rf.mounted)
			if current.appliedToDom {
				runHooks(current.node.mounted)
			}
		}
	})
	if err != nil {
		rf.abortCommit(current, err)
	}
	return err
}

// abortCommit routes a commit failure to error handling. Nodes whose
// mounted hooks never ran lose their willUnmount hooks.
func (rf *RootFiber) abortCommit(current *Fiber, err error) {
	for _, f := range rf.mounted {
		f.node.willUnmount = nil
	}
	rf.locked = false
	if current == nil {
		current = &rf.Fiber
	}
	current.node.app.handleError(current.node, current, newError(KindCommit, current.node, "", err))
}

func (rf *RootFiber) pop(list *[]*Fiber) *Fiber {
	l := *list
	f := l[len(l)-1]
	*list = l[:len(l)-1]
	return f
}
