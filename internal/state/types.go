package state

// State is one reportable printer state. Exactly one State is reportable
// at any instant, reduced from the three layers held by the Manager.
type State string

const (
	StateReady     State = "READY"
	StateBusy      State = "BUSY"
	StatePrinting  State = "PRINTING"
	StatePaused    State = "PAUSED"
	StateFinished  State = "FINISHED"
	StateAttention State = "ATTENTION"
	StateError     State = "ERROR"

	// stateUnset is the zero value of State and marks an empty
	// activity or override layer. Never reportable.
	stateUnset State = ""
)

// Source identifies the actor responsible for a state transition.
// It is attached to transitions for audit and reporting.
type Source string

const (
	// SourceUser is a person acting through the printer's own controls.
	SourceUser Source = "USER"

	// SourceFirmware is the printer firmware acting on its own.
	SourceFirmware Source = "MARLIN"

	// SourceHardware is the printer hardware (e.g. finishing a move).
	SourceHardware Source = "HW"

	// SourceConnect is the local print-job service driving the printer.
	SourceConnect Source = "CONNECT"

	// SourceSerial is the serial communication layer itself.
	SourceSerial Source = "SERIAL"

	// SourceUI is the local web interface.
	SourceUI Source = "WUI"

	// sourceNone is the zero value: no source could be attributed.
	sourceNone Source = ""
)

// Transition is a detected reportable-state change together with its
// attribution. Source and CommandID are empty when the change was not
// anticipated by any expectation.
type Transition struct {
	From      State  `json:"from"`
	To        State  `json:"to"`
	Source    Source `json:"source,omitempty"`
	CommandID string `json:"command_id,omitempty"`
}
