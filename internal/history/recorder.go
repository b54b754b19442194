package history

import (
	"context"

	"github.com/ondraz/printlink/internal/state"
)

// recorderChanSize is the buffer size for the async transition channel.
// Transitions beyond this are dropped (best-effort) to avoid back-pressure
// on the state manager.
const recorderChanSize = 256

// Logger is the minimal logging interface used by the Recorder.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder subscribes to state changes and persists them asynchronously.
//
// Enqueue is safe to call from a state change notification: it never
// blocks and never touches the database. Run must be started in its own
// goroutine before transitions can be written.
type Recorder struct {
	repo   Repository
	logger Logger
	ch     chan state.Transition
}

// NewRecorder creates a Recorder writing to the given repository.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: noopLogger{},
		ch:     make(chan state.Transition, recorderChanSize),
	}
}

// SetLogger sets a logger for dropped-transition and write-failure logging.
// Safe to call before Run starts.
func (r *Recorder) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Enqueue queues a transition for asynchronous persistence (best-effort).
// If the channel is full the transition is dropped and a warning is logged.
func (r *Recorder) Enqueue(tr state.Transition) {
	select {
	case r.ch <- tr:
	default:
		r.logger.Warn("transition history channel full - dropping entry",
			"from", tr.From,
			"to", tr.To,
		)
	}
}

// Run reads transitions from the channel and writes them serially.
// Serial writes are kinder to SQLite's single-writer model.
// It runs until the context is cancelled, then drains remaining entries.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case tr := <-r.ch:
			r.write(tr)
		case <-ctx.Done():
			for {
				select {
				case tr := <-r.ch:
					r.write(tr)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(tr state.Transition) {
	if err := r.repo.Record(context.Background(), tr); err != nil {
		r.logger.Error("transition history write failed",
			"from", tr.From,
			"to", tr.To,
			"error", err,
		)
	}
}
