// Package inspect serves a live view of a running loom application over
// HTTP.
//
// Routes:
//
//	GET  /healthz                  liveness
//	GET  /snapshot                 runtime.Snapshot as JSON
//	GET  /html                     serialized document body
//	GET  /events                   WebSocket stream of scheduler events
//	GET  /metrics                  Prometheus exposition
//	POST /dispatch/{hid}/{event}   dispatch an event to a host node
//
// Everything that touches the application runs on its loop; handlers post
// the work and wait for the result. Install Server.Observer in the runtime
// configuration to feed /events.
package inspect
