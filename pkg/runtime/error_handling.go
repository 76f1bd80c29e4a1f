package runtime

import "errors"

// handleError routes err raised in n to the closest error handler. f is
// the fiber the error was raised for, or nil to use n's current fiber.
//
// Every fiber from f up to its root is re-pinned on its node and flagged,
// so that the scheduler discards the unit of work and a render requested
// from a handler reuses the right fibers.
func (a *App) handleError(n *Node, f *Fiber, err error) {
	if f == nil {
		f = n.fiber
	}
	if f != nil {
		for cur := f; cur != nil; cur = cur.parent {
			cur.node.fiber = cur
			cur.err = err
		}
		if f.root != nil {
			f.root.err = err
		}
	}

	handled := a.dispatchError(n, err)
	a.observer.ErrorRaised(n.Name(), err, handled)
	if !handled {
		a.fail(n, err)
	}
}

// dispatchError walks from n to the root. Handlers of a node run most
// recent first; the first one returning nil handles the error, any other
// result replaces it for the next handler.
func (a *App) dispatchError(n *Node, err error) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.fiber != nil {
			cur.fiber.err = err
		}
		for i := len(cur.errorHandlers) - 1; i >= 0; i-- {
			h := cur.errorHandlers[i]
			var next error
			if perr := capture(func() { next = h(err) }); perr != nil {
				next = perr
			}
			if next == nil {
				return true
			}
			err = next
		}
	}
	return false
}

func asPanic(err error, target **PanicError) bool {
	return errors.As(err, target)
}
