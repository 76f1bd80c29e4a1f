package runtime

import (
	"github.com/vango-dev/loom/pkg/async"
)

// ErrorHandler receives errors raised in a node or below it. Returning nil
// marks the error handled; returning an error passes it (or a replacement)
// up to the next handler.
type ErrorHandler func(err error) error

type hooks struct {
	willStart       []func() *async.Future
	willUpdateProps []func(Props) *async.Future
	willRender      []func()
	rendered        []func()
	mounted         []func()
	willPatch       []func()
	patched         []func()
	willUnmount     []func()
	willDestroy     []func()
}

// OnWillStart registers an asynchronous hook that runs before the first
// render. The node renders once every returned future is fulfilled; a nil
// future counts as fulfilled.
func (n *Node) OnWillStart(fn func() *async.Future) {
	n.willStart = append(n.willStart, fn)
}

// OnWillUpdateProps registers an asynchronous hook that runs before a
// render caused by new props.
func (n *Node) OnWillUpdateProps(fn func(next Props) *async.Future) {
	n.willUpdateProps = append(n.willUpdateProps, fn)
}

// OnWillRender registers a hook run right before every render.
func (n *Node) OnWillRender(fn func()) {
	n.willRender = append(n.willRender, fn)
}

// OnRendered registers a hook run right after every render.
func (n *Node) OnRendered(fn func()) {
	n.rendered = append(n.rendered, fn)
}

// OnMounted registers a hook run once the first output is in the host
// tree. Children run before their parent.
func (n *Node) OnMounted(fn func()) {
	n.mounted = append(n.mounted, fn)
}

// OnWillPatch registers a hook run before an update is applied. Hooks run
// in reverse registration order.
func (n *Node) OnWillPatch(fn func()) {
	n.willPatch = append(n.willPatch, fn)
}

// OnPatched registers a hook run after an update was applied.
func (n *Node) OnPatched(fn func()) {
	n.patched = append(n.patched, fn)
}

// OnWillUnmount registers a hook run before a mounted node is removed.
// Hooks run in reverse registration order.
func (n *Node) OnWillUnmount(fn func()) {
	n.willUnmount = append(n.willUnmount, fn)
}

// OnWillDestroy registers a hook run when the node is destroyed, mounted
// or not. Hooks run in reverse registration order.
func (n *Node) OnWillDestroy(fn func()) {
	n.willDestroy = append(n.willDestroy, fn)
}

// OnError registers an error handler. Handlers of one node run in reverse
// registration order.
func (n *Node) OnError(h ErrorHandler) {
	n.errorHandlers = append(n.errorHandlers, h)
}

func runHooks(hs []func()) {
	for _, h := range hs {
		h()
	}
}

func runHooksReverse(hs []func()) {
	for i := len(hs) - 1; i >= 0; i-- {
		hs[i]()
	}
}

// callAsync invokes n asynchronous hooks. A hook that panics yields a
// rejected future instead.
func callAsync(n int, call func(i int) *async.Future) []*async.Future {
	out := make([]*async.Future, 0, n)
	for i := 0; i < n; i++ {
		var f *async.Future
		if err := capture(func() { f = call(i) }); err != nil {
			f = async.Rejected(err)
		}
		out = append(out, f)
	}
	return out
}
