// Package serial connects the printer's serial line to the rest of the
// daemon: it opens the port, reads the firmware's output line by line
// and routes each line to the handler whose pattern matches it.
//
// # Architecture
//
//	┌──────────────┐   lines    ┌──────────────┐   submatches   ┌──────────────┐
//	│    Reader    │──────────▶│    Parser    │──────────────▶│   handlers   │
//	│ (reader.go)  │            │ (parser.go)  │                │ (routing.go) │
//	└──────────────┘            └──────────────┘                └──────────────┘
//	       │
//	  serial port (port.go, go.bug.st/serial)
//
// The Parser keeps its patterns ordered by priority, newest first among
// equals, and stops at the first match. Handler panics are recovered so
// a misbehaving consumer cannot kill the read loop.
//
// routing.go holds the fixed table binding firmware output patterns to
// the state manager's mutating operations. The matching lives here; the
// state semantics live in the state package.
package serial
