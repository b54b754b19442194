package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ondraz/printlink/internal/infrastructure/mqtt"
)

// Subscriber is the slice of the MQTT client the listener needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// JobControl is the slice of the print job driver remote commands act on.
type JobControl interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
}

// commandPayload is a remote job command received over MQTT.
type commandPayload struct {
	Action string `json:"action"`
}

// Listener dispatches remote job commands received on the printer's
// command topic to the job driver. Only pause, resume and stop are
// accepted; starting a job requires a local file path and stays on the
// HTTP API.
type Listener struct {
	jobs   JobControl
	logger Logger
}

// NewListener creates a Listener driving jobs.
func NewListener(jobs JobControl) *Listener {
	return &Listener{jobs: jobs, logger: noopLogger{}}
}

// SetLogger sets a logger for rejected and failed commands.
func (l *Listener) SetLogger(logger Logger) {
	if logger != nil {
		l.logger = logger
	}
}

// Start subscribes to the command topic for printerID. Handlers run on
// the MQTT client's goroutines; each command is independent.
func (l *Listener) Start(sub Subscriber, printerID string, qos byte) error {
	topic := mqtt.Topics{}.PrinterCommand(printerID)
	if err := sub.Subscribe(topic, qos, l.handleMessage); err != nil {
		return fmt.Errorf("subscribing to command topic: %w", err)
	}
	return nil
}

func (l *Listener) handleMessage(topic string, payload []byte) error {
	var cmd commandPayload
	if err := json.Unmarshal(payload, &cmd); err != nil {
		l.logger.Warn("ignoring malformed command payload", "topic", topic, "error", err)
		return nil
	}

	ctx := context.Background()
	var err error
	switch cmd.Action {
	case "pause":
		err = l.jobs.Pause(ctx)
	case "resume":
		err = l.jobs.Resume(ctx)
	case "stop":
		err = l.jobs.Stop(ctx)
	default:
		l.logger.Warn("ignoring unknown command action", "topic", topic, "action", cmd.Action)
		return nil
	}
	if err != nil {
		l.logger.Warn("remote command failed", "action", cmd.Action, "error", err)
	}
	return nil
}
