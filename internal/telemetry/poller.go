package telemetry

import (
	"context"
	"time"
)

// Sender is the slice of the command dispatcher the poller needs.
type Sender interface {
	Send(ctx context.Context, gcode string) (string, error)
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Queries sent each polling round: temperatures, SD print status,
// percent-done report.
var pollQueries = []string{"M105", "M27", "M73"}

// wakeQuantum bounds how long shutdown waits on a sleeping poller.
const wakeQuantum = 100 * time.Millisecond

// perQueryTimeout bounds one query round-trip so a stuck printer
// cannot wedge the loop for longer than the confirmation timeout.
const perQueryTimeout = 5 * time.Second

// Poller periodically queries the printer. Responses are handled by
// whatever the serial parser routes them to; the poller only sends.
type Poller struct {
	sender   Sender
	interval time.Duration
	logger   Logger
}

// NewPoller creates a Poller sending each round every interval.
func NewPoller(sender Sender, interval time.Duration) *Poller {
	return &Poller{
		sender:   sender,
		interval: interval,
		logger:   noopLogger{},
	}
}

// SetLogger sets a logger for poll tracing.
func (p *Poller) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Run polls until ctx is cancelled. It sleeps in short steps so
// cancellation is honoured promptly even with long intervals.
func (p *Poller) Run(ctx context.Context) {
	next := time.Now()
	for {
		if !time.Now().Before(next) {
			p.poll(ctx)
			next = time.Now().Add(p.interval)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wakeQuantum):
		}
	}
}

// poll sends one round of queries. Failures are logged and the round
// continues; a busy printer routinely delays confirmations.
func (p *Poller) poll(ctx context.Context) {
	for _, query := range pollQueries {
		queryCtx, cancel := context.WithTimeout(ctx, perQueryTimeout)
		_, err := p.sender.Send(queryCtx, query)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("telemetry query failed", "query", query, "error", err)
			continue
		}
		p.logger.Debug("telemetry query sent", "query", query)
	}
}
