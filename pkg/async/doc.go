// Package async provides the host primitives the runtime is scheduled on: a
// cooperative single-goroutine Loop and a single-assignment Future.
//
// The Loop owns three queues. Tasks arrive from any goroutine through Post.
// Microtasks are queued by code already running on the loop and always run
// before the next task. Frame callbacks, requested with RequestFrame, run
// once both other queues are empty; one such round is a frame, and it is
// where the runtime scheduler batches its commits.
//
// Everything that runs on a Loop runs on one goroutine at a time, so state
// owned by the loop needs no locking. Other goroutines hand work back with
// Post, or with Go, which runs blocking work on its own goroutine and settles
// the returned Future on the loop.
//
//	loop := async.NewLoop()
//	f := async.Go(loop, func(ctx context.Context) (any, error) {
//	    return fetch(ctx)
//	})
//	f.Await(loop, func(v any, err error) { ... })
//	go loop.Run(ctx)
package async
