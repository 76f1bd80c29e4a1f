package runtime

import (
	"sync/atomic"

	"github.com/vango-dev/loom/pkg/async"
	"github.com/vango-dev/loom/pkg/reactive"
)

var nodeIDs atomic.Uint64

// Status is the lifecycle stage of a Node.
type Status uint8

const (
	// StatusNew nodes have not been applied to a host tree yet.
	StatusNew Status = iota
	// StatusMounted nodes have output in a host tree.
	StatusMounted
	// StatusCancelled nodes were dropped before their first commit.
	StatusCancelled
	// StatusDestroyed nodes are finished; nothing runs on them again.
	StatusDestroyed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusMounted:
		return "mounted"
	case StatusCancelled:
		return "cancelled"
	case StatusDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Node is a live component instance. Nodes form a tree through their
// parent pointer and keyed children; a Node is also the OutputNode its
// parent embeds in its own output.
type Node struct {
	id        uint64
	app       *App
	def       *Definition
	parent    *Node
	parentKey string

	// props is what the parent passed at the last commit, nextProps what
	// the in-flight update carries and renderProps what render reads
	// (defaults applied).
	props       Props
	nextProps   Props
	renderProps Props

	renderFn RenderFunc
	output   OutputNode
	fiber    *Fiber
	status   Status

	// forceNextRender is set when a rendered fiber of this node was
	// cancelled; the parent's next render must update it.
	forceNextRender bool

	children *childMap
	watcher  *reactive.Computation

	hooks
	errorHandlers []ErrorHandler

	waiters []*async.Future
}

func newNode(app *App, def *Definition, props Props, parent *Node, key string) *Node {
	n := &Node{
		id:          nodeIDs.Add(1),
		app:         app,
		def:         def,
		parent:      parent,
		parentKey:   key,
		props:       props,
		nextProps:   props,
		renderProps: def.withDefaults(props),
		children:    newChildMap(),
	}
	n.watcher = app.graph.NewWatcher(func() {
		n.Render(false)
	})
	app.graph.Untracked(func() {
		n.renderFn = def.instantiate(n)
	})
	return n
}

// ID returns the node identifier, unique within the process.
func (n *Node) ID() uint64 {
	return n.id
}

// Name returns the component name.
func (n *Node) Name() string {
	return n.def.name
}

// Definition returns the component definition.
func (n *Node) Definition() *Definition {
	return n.def
}

// Key returns the key the parent stores this node under.
func (n *Node) Key() string {
	return n.parentKey
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// App returns the owning application.
func (n *Node) App() *App {
	return n.app
}

// Graph returns the reactive graph of the application.
func (n *Node) Graph() *reactive.Graph {
	return n.app.graph
}

// Status returns the lifecycle stage.
func (n *Node) Status() Status {
	return n.status
}

// Props returns the props the last render used.
func (n *Node) Props() Props {
	return n.renderProps
}

// Output returns the committed output, or nil before the first commit.
func (n *Node) Output() OutputNode {
	return n.output
}

// Fiber returns the in-flight work for this node, or nil.
func (n *Node) Fiber() *Fiber {
	return n.fiber
}

// Children returns the committed children in insertion order.
func (n *Node) Children() []*Node {
	return n.children.list()
}

// Child returns the committed child stored under key, or nil.
func (n *Node) Child(key string) *Node {
	return n.children.get(key)
}

// Effect creates an effect owned by the node. It is disposed when the
// node is destroyed.
func (n *Node) Effect(fn func() reactive.Cleanup) *reactive.Effect {
	body := func() reactive.Cleanup {
		var cleanup reactive.Cleanup
		if err := capture(func() { cleanup = fn() }); err != nil {
			n.app.handleError(n, nil, newError(KindHook, n, "effect", err))
		}
		return cleanup
	}
	var e *reactive.Effect
	n.app.graph.Untracked(func() {
		e = reactive.NewEffect(n.app.graph, body)
	})
	n.OnWillDestroy(e.Dispose)
	return e
}

// Render schedules a render of the node. When deep is set every
// descendant is updated too, even with unchanged props. The future
// settles with the node once the work has been applied to the host tree,
// or right away when there is nothing to do.
func (n *Node) Render(deep bool) *async.Future {
	done := async.NewFuture()
	if n.app.destroyed && n.app.err == nil {
		done.Reject(ErrAppDestroyed)
		return done
	}
	n.requestRender(deep, done)
	return done
}

func (n *Node) requestRender(deep bool, done *async.Future) {
	if n.status >= StatusCancelled {
		n.settle(done)
		return
	}
	current := n.fiber
	if current != nil && (current.rendering || (current.root != nil && current.root.locked)) {
		n.app.loop.Microtask(func() {
			n.continueRender(deep, n.fiber, done)
		})
		return
	}
	n.continueRender(deep, current, done)
}

func (n *Node) continueRender(deep bool, current *Fiber, done *async.Future) {
	if n.status >= StatusCancelled {
		n.settle(done)
		return
	}
	if current != nil {
		if !current.rendered && current.err == nil {
			// a render is already on its way; ride along
			if deep {
				current.deep = true
			}
			n.waiters = append(n.waiters, done)
			return
		}
		deep = deep || current.deep
	} else if n.output == nil {
		n.settle(done)
		return
	}

	fiber := makeRootFiber(n)
	fiber.deep = deep
	n.fiber = fiber
	n.app.scheduler.addFiber(fiber)
	n.waiters = append(n.waiters, done)

	n.app.loop.Microtask(func() {
		if n.status >= StatusCancelled {
			return
		}
		if n.fiber == fiber && (current != nil || fiber.parent == nil) {
			fiber.render()
		}
	})
}

// initiateRender runs the willStart hooks for a new node, then renders it
// if the fiber is still the node's current work.
func (n *Node) initiateRender(f *Fiber) {
	n.fiber = f
	if len(n.mounted) > 0 {
		f.root.mounted = append(f.root.mounted, f)
	}

	futures := callAsync(len(n.willStart), func(i int) *async.Future {
		return n.willStart[i]()
	})
	all := async.All(futures...)
	n.app.watchSlowHook(n, "willStart", all)
	all.Await(n.app.loop, func(_ any, err error) {
		if n.fiber != f {
			return
		}
		if err != nil {
			n.app.handleError(n, f, newError(KindHook, n, "willStart", err))
			return
		}
		if n.status == StatusNew {
			f.render()
		}
	})
}

// updateAndRender re-renders an existing child with new props as part of
// parentFiber.
func (n *Node) updateAndRender(props Props, parentFiber *Fiber) {
	n.nextProps = props
	next := n.def.withDefaults(props)
	fiber := makeChildFiber(n, parentFiber)
	n.fiber = fiber

	futures := callAsync(len(n.willUpdateProps), func(i int) *async.Future {
		return n.willUpdateProps[i](next)
	})
	all := async.All(futures...)
	n.app.watchSlowHook(n, "willUpdateProps", all)
	all.Await(n.app.loop, func(_ any, err error) {
		if n.fiber != fiber {
			return
		}
		if err != nil {
			n.app.handleError(n, fiber, newError(KindHook, n, "willUpdateProps", err))
			return
		}
		n.renderProps = next
		fiber.render()
		if root := fiber.root; root != nil {
			if len(n.willPatch) > 0 {
				root.willPatch = append(root.willPatch, fiber)
			}
			if len(n.patched) > 0 {
				root.patched = append(root.patched, fiber)
			}
		}
	})
}

// invokeRender runs the render function with the watcher tracking every
// reactive read.
func (n *Node) invokeRender(f *Fiber) (out OutputNode, err error) {
	ctx := &RenderContext{node: n, fiber: f}
	if perr := capture(func() {
		runHooks(n.willRender)
		n.app.graph.Track(n.watcher, func() {
			out, err = n.renderFn(ctx)
		})
		runHooks(n.rendered)
	}); perr != nil {
		return nil, newError(KindRender, n, "", perr)
	}
	if err != nil {
		return nil, newError(KindRender, n, "", err)
	}
	if out == nil {
		return nil, newError(KindRender, n, "", errNoOutput)
	}
	return out, nil
}

// patchOutput applies the current fiber's output over the committed one.
func (n *Node) patchOutput() {
	f := n.fiber
	hadChildren := n.children.len() > 0
	n.children = f.childrenMap
	n.output.Patch(f.output, hadChildren)
	f.appliedToDom = true
	n.fiber = nil
	n.settleWaiters()
}

// updateOutput patches every node below n whose fiber output differs from
// what is committed. Used when a mount fiber completes over output that is
// already in place.
func (n *Node) updateOutput() {
	f := n.fiber
	if f == nil {
		return
	}
	if n.output == f.output {
		for _, child := range n.children.list() {
			child.updateOutput()
		}
		return
	}
	n.output.Patch(f.output, false)
	f.appliedToDom = true
	n.fiber = nil
	n.settleWaiters()
}

func (n *Node) settle(done *async.Future) {
	if err := n.app.err; err != nil {
		done.Reject(err)
		return
	}
	done.Resolve(n)
}

func (n *Node) settleWaiters() {
	waiters := n.waiters
	n.waiters = nil
	for _, w := range waiters {
		n.settle(w)
	}
}

// cancel drops a node that never committed.
func (n *Node) cancel() {
	n.cancelInternal()
	if p := n.parent; p != nil && p.children.get(n.parentKey) == n {
		p.children.delete(n.parentKey)
	}
	n.app.scheduler.scheduleDestroy(n)
}

func (n *Node) cancelInternal() {
	n.status = StatusCancelled
	for _, child := range n.children.list() {
		child.cancelInternal()
	}
	n.settleWaiters()
}

func (n *Node) destroy() {
	wasMounted := n.status == StatusMounted
	n.destroyInternal()
	if wasMounted && n.output != nil {
		n.output.Remove()
	}
}

func (n *Node) destroyInternal() {
	if n.status == StatusDestroyed {
		return
	}
	if n.status == StatusMounted {
		runHooksReverse(n.willUnmount)
	}
	for _, child := range n.children.list() {
		child.destroyInternal()
	}
	if err := capture(func() {
		runHooksReverse(n.willDestroy)
	}); err != nil {
		n.app.handleError(n, nil, newError(KindHook, n, "willDestroy", err))
	}
	n.status = StatusDestroyed
	n.fiber = nil
	n.app.graph.Dispose(n.watcher)
	n.settleWaiters()
}

// Mount implements OutputNode. A child mounts the output its first fiber
// produced.
func (n *Node) Mount(parent Target, anchor HostNode) {
	f := n.fiber
	if f == nil || f.output == nil {
		return
	}
	n.output = f.output
	n.output.Mount(parent, anchor)
	n.status = StatusMounted
	f.appliedToDom = true
	n.children = f.childrenMap
	n.fiber = nil
	n.settleWaiters()
}

// Patch implements OutputNode. A node patches itself only when the
// committing fiber is one of its own child fibers; otherwise its output is
// already up to date.
func (n *Node) Patch(_ OutputNode, _ bool) {
	if n.fiber != nil && n.fiber.parent != nil {
		n.patchOutput()
		n.props = n.nextProps
	}
}

// BeforeRemove implements OutputNode.
func (n *Node) BeforeRemove() {
	n.destroyInternal()
}

// Remove implements OutputNode.
func (n *Node) Remove() {
	if n.output != nil {
		n.output.Remove()
	}
}

// FirstNode implements OutputNode.
func (n *Node) FirstNode() HostNode {
	if n.output == nil {
		return nil
	}
	return n.output.FirstNode()
}

// HostNodes returns the top-level host nodes of the committed output.
func (n *Node) HostNodes() []HostNode {
	if n.output == nil {
		return nil
	}
	if hn, ok := n.output.(hostNoder); ok {
		return hn.HostNodes()
	}
	if first := n.output.FirstNode(); first != nil {
		return []HostNode{first}
	}
	return nil
}
