// Package state derives a single reportable printer state from the
// overlapping conditions a 3D printer's firmware exposes on its text
// output, and attributes every detected transition to the actor that
// caused it.
//
// Firmware has no unified state concept. "Busy", "printing", "paused"
// and "error" are independent conditions inferred from individual output
// lines, so the package keeps three layers and reduces them to one value:
//
//	┌────────────────────────────────────────────────────────────┐
//	│                        state.Manager                        │
//	│                                                             │
//	│   override (ATTENTION / ERROR)        ── wins when set      │
//	│   activity (PRINTING / PAUSED / FINISHED)                   │
//	│   base     (READY / BUSY)             ── always set         │
//	│                                                             │
//	│   reportable = override, else activity, else base           │
//	└────────────────────────────────────────────────────────────┘
//
// # Expectations
//
// Observation alone cannot say why the state changed. Before issuing a
// command that should cause a transition, a caller pushes an Expectation
// describing the transition and the responsible Source; when the manager
// later detects that transition it attributes the change to that source
// and command. Every mutating operation also declares its own default
// expectation mirroring ordinary firmware behaviour, used when no caller
// pushed one. An expectation lives for exactly one mutating operation.
//
// # Key Types
//
//   - Manager: owns the layers, the pending expectation and the signals
//   - State, Source: closed enumerations of states and transition origins
//   - Expectation: a claim about an upcoming transition and its source
//   - Transition: a detected change with its attribution
//
// # Thread Safety
//
// All Manager methods are safe for concurrent use. One mutex covers the
// layers, the reported history and the pending expectation. Change
// subscribers run synchronously while that mutex is held and therefore
// must not call back into the Manager; a subscriber that needs to mutate
// state has to defer the call to another goroutine.
package state
