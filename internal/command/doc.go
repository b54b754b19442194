// Package command issues G-code commands to the printer.
//
// The Dispatcher serialises writes to the port, assigns each command a
// unique id, and waits for the firmware's "ok" confirmation before the
// next command goes out. State-affecting commands (pause, resume, stop)
// push an expectation into the state manager first, so the resulting
// transition is attributed to the command that caused it.
//
// # Architecture
//
//	caller ──► Dispatcher ──write──► serial port
//	              ▲
//	              └──"ok"── Parser (confirmation handler)
//
// One command is in flight at a time. Confirmation waits honour the
// caller's context and a configurable timeout.
package command
