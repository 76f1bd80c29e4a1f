// Package runtime schedules component renders and commits them atomically.
//
// An App hosts one tree of component Nodes. Each render request for a node
// is represented by a Fiber; the fibers created together for one request
// form a tree under a RootFiber, which is the unit of commit. A root fiber
// counts the fibers of its subtree that have not produced output yet and
// commits only when that count reaches zero, so a subtree is never applied
// half rendered. Lifecycle hooks may suspend by returning an async.Future;
// many renders can be suspended at once, and when two of them target the
// same node the later one wins.
//
// # Scheduling
//
// All of this runs on the App's async.Loop. Render requests coalesce: a
// request for a node whose fiber has not rendered yet joins that fiber, and
// a request for a node whose fiber already rendered reuses the fiber instead
// of allocating a new one. The Scheduler completes ready root fibers once
// per frame; fibers that became ready while a frame was being processed wait
// for the next one.
//
// # Reactivity
//
// Each node owns a watcher in the App's reactive.Graph. Signals read by the
// render function subscribe the node, and writing them schedules a render.
//
// # Errors
//
// Panics and errors raised by hooks, render functions and commits are routed
// to the nearest OnError handler up the parent chain. When nothing handles
// them the App is destroyed and the error rejects the Future returned by
// Mount and by any pending Node.Render.
//
//	app := runtime.New(loop, nil)
//	counter := runtime.Define("Counter", func(n *runtime.Node) runtime.RenderFunc {
//	    count := reactive.NewSignal(n.Graph(), 0)
//	    return func(ctx *runtime.RenderContext) (runtime.OutputNode, error) {
//	        return vdom.NewBlock(vdom.Textf("%d", count.Get())), nil
//	    }
//	})
//	mounted := app.Mount(counter, nil, doc.Body(), runtime.LastChild)
package runtime
