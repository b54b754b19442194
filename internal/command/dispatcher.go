package command

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ondraz/printlink/internal/serial"
	"github.com/ondraz/printlink/internal/state"
)

// defaultConfirmTimeout is how long to wait for the firmware's "ok".
// Long moves can hold the confirmation back for a while.
const defaultConfirmTimeout = 10 * time.Second

// G-code commands for print control.
const (
	gcodePause  = "M601"
	gcodeResume = "M602"
	gcodeStop   = "M603"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Dispatcher sends G-code to the printer and waits for confirmation.
//
// All methods are safe for concurrent use; commands are serialised so
// at most one is awaiting confirmation at a time.
type Dispatcher struct {
	port    io.Writer
	manager *state.Manager
	logger  Logger
	timeout time.Duration

	// mu serialises command dispatch.
	mu sync.Mutex

	// ack is the confirmation channel for the in-flight command.
	ackMu sync.Mutex
	ack   chan struct{}
}

// NewDispatcher creates a Dispatcher writing to port. It registers a
// confirmation handler on the parser so firmware "ok" lines release the
// in-flight command.
func NewDispatcher(port io.Writer, parser *serial.Parser, manager *state.Manager) *Dispatcher {
	d := &Dispatcher{
		port:    port,
		manager: manager,
		logger:  noopLogger{},
		timeout: defaultConfirmTimeout,
	}
	parser.Add(serial.ConfirmationRegex, serial.PriorityConfirmation, d.handleConfirmation)
	return d
}

// SetLogger sets a logger for dispatch tracing.
func (d *Dispatcher) SetLogger(logger Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// SetTimeout overrides the confirmation timeout.
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.timeout = timeout
	}
}

// Send writes one G-code command and waits for confirmation.
// It returns the generated command id.
func (d *Dispatcher) Send(ctx context.Context, gcode string) (string, error) {
	id := uuid.NewString()
	return id, d.send(ctx, id, gcode)
}

// PausePrint asks the firmware to pause the running print.
//
// Once the command is confirmed, the expected PRINTING -> PAUSED
// transition is registered so the state manager attributes it to this
// command and the user who sent it.
func (d *Dispatcher) PausePrint(ctx context.Context) (string, error) {
	return d.sendExpecting(ctx, gcodePause, state.StatePaused)
}

// ResumePrint asks the firmware to resume a paused print.
func (d *Dispatcher) ResumePrint(ctx context.Context) (string, error) {
	return d.sendExpecting(ctx, gcodeResume, state.StatePrinting)
}

// StopPrint asks the firmware to abort the print entirely.
func (d *Dispatcher) StopPrint(ctx context.Context) (string, error) {
	return d.sendExpecting(ctx, gcodeStop, state.StateReady)
}

// sendExpecting sends the command, then registers a user-attributed
// expectation for the target state.
//
// The push happens after confirmation on purpose: the "ok" line runs a
// state cycle of its own, which empties the ledger. Pushing first would
// hand the expectation to the confirmation instead of the pause/resume
// transition that follows it.
func (d *Dispatcher) sendExpecting(ctx context.Context, gcode string, to state.State) (string, error) {
	id := uuid.NewString()

	if err := d.send(ctx, id, gcode); err != nil {
		return "", err
	}

	d.manager.Expect(&state.Expectation{
		CommandID: id,
		ToStates:  map[state.State]state.Source{to: state.SourceUser},
	})
	return id, nil
}

// send performs the write and confirmation wait under the dispatch lock.
func (d *Dispatcher) send(ctx context.Context, id string, gcode string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := make(chan struct{})
	d.ackMu.Lock()
	d.ack = ch
	d.ackMu.Unlock()

	if _, err := io.WriteString(d.port, gcode+"\n"); err != nil {
		d.clearPending()
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, gcode, err)
	}

	d.logger.Debug("gcode sent", "command_id", id, "gcode", gcode)

	select {
	case <-ch:
		return nil
	case <-time.After(d.timeout):
		d.clearPending()
		d.logger.Warn("no confirmation from printer", "command_id", id, "gcode", gcode)
		return fmt.Errorf("%w: %s", ErrConfirmationTimeout, gcode)
	case <-ctx.Done():
		d.clearPending()
		return fmt.Errorf("command: %s: %w", gcode, ctx.Err())
	}
}

// handleConfirmation releases the in-flight command, if any.
// Unsolicited confirmations are ignored.
func (d *Dispatcher) handleConfirmation(_ []string) {
	d.ackMu.Lock()
	ch := d.ack
	d.ack = nil
	d.ackMu.Unlock()

	if ch != nil {
		close(ch)
	}
}

func (d *Dispatcher) clearPending() {
	d.ackMu.Lock()
	d.ack = nil
	d.ackMu.Unlock()
}
