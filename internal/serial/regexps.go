package serial

import "regexp"

// Firmware output patterns. These are the only place the daemon knows
// about the shape of the printer's output; everything downstream works
// with submatches.
var (
	// ConfirmationRegex matches the firmware's "ok", optionally with
	// trailing advanced-ok payload.
	ConfirmationRegex = regexp.MustCompile(`^ok\s*(.*)$`)

	// BusyRegex matches the periodic busy heartbeat while the firmware
	// processes a long-running instruction.
	BusyRegex = regexp.MustCompile(`^echo:busy:\s*processing$`)

	// AttentionRegex matches the busy variant emitted while the printer
	// waits for the user (filament change, crash recovery prompt).
	AttentionRegex = regexp.MustCompile(`^echo:busy:\s*paused for user$`)

	// PausedRegex matches the host action asking us to treat the print
	// as paused.
	PausedRegex = regexp.MustCompile(`^// action:paused$`)

	// ResumedRegex matches the host action announcing a resume.
	ResumedRegex = regexp.MustCompile(`^// action:resumed$`)

	// CancelRegex matches the host action announcing a cancelled print.
	CancelRegex = regexp.MustCompile(`^// action:cancel$`)

	// StartPrintRegex matches the echo the firmware prints when an SD
	// print is started from the printer's own menu.
	StartPrintRegex = regexp.MustCompile(`^echo:enqueing "M24"$`)

	// PrintDoneRegex matches the end-of-print announcement.
	PrintDoneRegex = regexp.MustCompile(`^Done printing file$`)

	// ErrorRegex matches fatal firmware errors.
	ErrorRegex = regexp.MustCompile(`^Error:\s*(.*)$`)

	// PrintInfoRegex captures the percent-done progress report.
	PrintInfoRegex = regexp.MustCompile(`^NORMAL MODE: Percent done: (-?\d+);.*$`)

	// SDPrintingRegex matches the M27 report. Submatch 1 is non-empty
	// exactly when the firmware says no SD print is running.
	SDPrintingRegex = regexp.MustCompile(`^(?:(Not SD printing)|SD printing byte \d+/\d+)$`)

	// TemperatureRegex captures hotend and bed temperatures from the
	// M105 report: actual/target pairs.
	TemperatureRegex = regexp.MustCompile(`^(?:ok\s+)?T:\s*([\d.]+)\s*/\s*([\d.]+)\s+B:\s*([\d.]+)\s*/\s*([\d.]+).*$`)
)

// Handler priorities. Higher runs first; among equals the newest
// registration wins. Confirmation outranks everything because "ok"
// terminates nearly every exchange and must never be shadowed.
const (
	PriorityConfirmation = 100
	PriorityAttention    = 10 // must beat the generic busy pattern
	PriorityDefault      = 0
)
