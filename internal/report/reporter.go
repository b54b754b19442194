package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ondraz/printlink/internal/infrastructure/mqtt"
	"github.com/ondraz/printlink/internal/state"
)

// reporterChanSize bounds the publish backlog. When the broker is slow
// the newest events win; state is retained so subscribers converge.
const reporterChanSize = 256

// Publisher is the slice of the MQTT client the reporter needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// message is one pending publish, marshalled at enqueue time.
type message struct {
	topic    string
	payload  []byte
	retained bool
}

// statePayload is the retained state document.
type statePayload struct {
	State     state.State `json:"state"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// transitionPayload is one transition event.
type transitionPayload struct {
	From      state.State  `json:"from"`
	To        state.State  `json:"to"`
	Source    state.Source `json:"source,omitempty"`
	CommandID string       `json:"command_id,omitempty"`
	At        time.Time    `json:"at"`
}

// jobPayload is one job lifecycle event.
type jobPayload struct {
	Action   string    `json:"action"`
	FileName string    `json:"file_name,omitempty"`
	Progress int       `json:"progress"`
	At       time.Time `json:"at"`
}

// telemetryPayload is one telemetry reading.
type telemetryPayload struct {
	Kind    string    `json:"kind"`
	Sensor  string    `json:"sensor,omitempty"`
	Actual  float64   `json:"actual,omitempty"`
	Target  float64   `json:"target,omitempty"`
	Percent int       `json:"percent,omitempty"`
	At      time.Time `json:"at"`
}

// Reporter publishes printer state, transitions, job events and
// telemetry readings for one printer.
type Reporter struct {
	publisher Publisher
	topics    mqtt.Topics
	printerID string
	logger    Logger
	ch        chan message
}

// NewReporter creates a Reporter for printerID. Call Run to start the
// publish loop and register HandleTransition on the state manager.
func NewReporter(publisher Publisher, printerID string) *Reporter {
	return &Reporter{
		publisher: publisher,
		printerID: printerID,
		logger:    noopLogger{},
		ch:        make(chan message, reporterChanSize),
	}
}

// SetLogger sets a logger for publish failures.
func (r *Reporter) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// HandleTransition enqueues the retained state update and the
// transition event. Safe to call from a state manager signal: it never
// blocks and never publishes inline.
func (r *Reporter) HandleTransition(tr state.Transition) {
	now := time.Now().UTC()
	r.enqueueJSON(r.topics.PrinterState(r.printerID), statePayload{
		State:     tr.To,
		UpdatedAt: now,
	}, true)
	r.enqueueJSON(r.topics.PrinterTransition(r.printerID), transitionPayload{
		From:      tr.From,
		To:        tr.To,
		Source:    tr.Source,
		CommandID: tr.CommandID,
		At:        now,
	}, false)
}

// JobEvent publishes a job lifecycle event: started, paused, resumed,
// stopped, finished.
func (r *Reporter) JobEvent(action, fileName string, progress int) {
	r.enqueueJSON(r.topics.PrinterJob(r.printerID), jobPayload{
		Action:   action,
		FileName: fileName,
		Progress: progress,
		At:       time.Now().UTC(),
	}, false)
}

// WriteTemperature publishes a temperature reading. Together with
// WriteProgress this lets the Reporter stand in as a telemetry sink.
func (r *Reporter) WriteTemperature(_ string, sensor string, actual, target float64) {
	r.enqueueJSON(r.topics.PrinterTelemetry(r.printerID), telemetryPayload{
		Kind:   "temperature",
		Sensor: sensor,
		Actual: actual,
		Target: target,
		At:     time.Now().UTC(),
	}, false)
}

// WriteProgress publishes a progress reading.
func (r *Reporter) WriteProgress(_ string, percent int) {
	r.enqueueJSON(r.topics.PrinterTelemetry(r.printerID), telemetryPayload{
		Kind:    "progress",
		Percent: percent,
		At:      time.Now().UTC(),
	}, false)
}

// enqueueJSON marshals and enqueues one publish without blocking.
func (r *Reporter) enqueueJSON(topic string, payload any, retained bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("failed to marshal report payload", "topic", topic, "error", err)
		return
	}
	select {
	case r.ch <- message{topic: topic, payload: data, retained: retained}:
	default:
		r.logger.Warn("report channel full - dropping message", "topic", topic)
	}
}

// Run publishes queued messages until ctx is cancelled, then drains
// whatever is already queued.
func (r *Reporter) Run(ctx context.Context) {
	for {
		select {
		case msg := <-r.ch:
			r.publish(msg)
		case <-ctx.Done():
			for {
				select {
				case msg := <-r.ch:
					r.publish(msg)
				default:
					return
				}
			}
		}
	}
}

func (r *Reporter) publish(msg message) {
	if !r.publisher.IsConnected() {
		// Retained state converges on reconnect; events are best-effort.
		return
	}
	if err := r.publisher.Publish(msg.topic, msg.payload, 1, msg.retained); err != nil {
		r.logger.Warn("publish failed", "topic", msg.topic, "error", err)
	}
}
