package serial

import (
	"fmt"
	"io"

	bugst "go.bug.st/serial"
)

// PortConfig describes how to open the printer's serial device.
// These map to the serial section of config.yaml.
type PortConfig struct {
	// Device is the serial device path (e.g. /dev/ttyAMA0).
	Device string

	// BaudRate is the line speed; printer firmware commonly runs 115200.
	BaudRate int
}

// OpenPort opens and configures the printer's serial device.
//
// The returned closer unblocks any pending Read, which is how the
// Reader loop is stopped.
func OpenPort(cfg PortConfig) (io.ReadWriteCloser, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("%w: device path is required", ErrInvalidConfig)
	}
	if cfg.BaudRate <= 0 {
		return nil, fmt.Errorf("%w: baud rate must be positive", ErrInvalidConfig)
	}

	mode := &bugst.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}

	port, err := bugst.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Device, err)
	}
	return port, nil
}
