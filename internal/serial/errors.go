package serial

import "errors"

// Domain errors for the serial package.
var (
	// ErrPortClosed is returned when the read loop ends because the
	// port was closed underneath it.
	ErrPortClosed = errors.New("serial: port closed")

	// ErrNoSuchHandler is returned when removing a handler that was
	// never registered.
	ErrNoSuchHandler = errors.New("serial: no such handler")

	// ErrInvalidConfig is returned when port configuration is unusable.
	ErrInvalidConfig = errors.New("serial: invalid config")
)
