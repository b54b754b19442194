// Package history persists printer state transitions to SQLite.
//
// Every reportable state change carries the attributed source and, when
// known, the command that caused it. The history table provides a local
// audit trail of what the printer did and why, even when the time-series
// database is unavailable.
//
// # Architecture
//
//	state.Manager ──OnStateChange──► Recorder ──channel──► SQLiteRepository
//
// The Recorder decouples persistence from state change notification:
// notifications are published under the state manager's lock, so the
// subscriber only enqueues onto a buffered channel and a drain goroutine
// performs the actual insert. When the buffer is full the transition is
// dropped with a warning rather than blocking the manager.
package history
