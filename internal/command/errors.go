package command

import "errors"

// Sentinel errors for command dispatch.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConfirmationTimeout is returned when the firmware does not
	// confirm a command within the confirmation timeout.
	ErrConfirmationTimeout = errors.New("command: confirmation timeout")

	// ErrWriteFailed is returned when writing to the port fails.
	ErrWriteFailed = errors.New("command: write failed")
)
