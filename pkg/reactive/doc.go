// Package reactive implements the dependency graph behind component state.
//
// The graph has two kinds of vertices. An Atom is the smallest observable
// cell: reading it while a computation runs subscribes that computation,
// writing it invalidates every observer. A Computation is a function whose
// sources are exactly the atoms it read on its last run. Derived
// computations are lazy and cached, and are themselves readable atoms.
// Effects are eager: they are queued when invalidated and re-run once per
// batching window.
//
// # Freshness
//
// Every computation is in one of three states:
//
//   - Executed: its cached result reflects its sources.
//   - Stale: a direct source changed; it must run again.
//   - Pending: an upstream derived computation may have changed. Before
//     running, its derived sources are resolved; if none of them produced a
//     new value it returns to Executed without running.
//
// Pending propagation is what keeps diamond-shaped graphs from recomputing
// the same node twice.
//
// # Ownership
//
// A Graph is not safe for concurrent use. It belongs to whichever goroutine
// drives it, normally the async.Loop of a runtime.App. The computation being
// run is an explicit field of the Graph, saved and restored around every
// run, so nothing leaks across suspension points.
//
//	g := reactive.NewGraph()
//	count := reactive.NewSignal(g, 0)
//	double := reactive.NewDerived(g, func() int { return count.Get() * 2 })
//	reactive.NewEffect(g, func() reactive.Cleanup {
//	    fmt.Println(double.Get())
//	    return nil
//	})
//	count.Set(2) // prints 4
package reactive
