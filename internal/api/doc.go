// Package api provides the HTTP REST API and WebSocket server for the
// printer link daemon.
//
// It exposes the printer's reportable state, the transition history,
// and file-job control to local clients (web UIs, scripts, integrations).
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// State transitions reach WebSocket clients through a buffered pump:
// the state manager's changed signal runs under the manager's lock, so
// the signal callback only enqueues and a server goroutine does the
// broadcasting.
package api
