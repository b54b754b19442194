package filejob

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Sender is the slice of the command dispatcher the driver needs.
type Sender interface {
	Send(ctx context.Context, gcode string) (string, error)
	PausePrint(ctx context.Context) (string, error)
	ResumePrint(ctx context.Context) (string, error)
	StopPrint(ctx context.Context) (string, error)
}

// StateHooks is the slice of the state manager the driver needs.
type StateHooks interface {
	JobStartedPrinting()
	JobStoppedPrinting()
	NotPrinting()
	TelemetryProgress(percent int)
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Status is a snapshot of the driver for the API layer.
type Status struct {
	Active    bool      `json:"active"`
	Paused    bool      `json:"paused"`
	FileName  string    `json:"file_name,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Progress  int       `json:"progress"`
}

// activeJob is the mutable state of one streaming run.
type activeJob struct {
	recordID  int64
	fileName  string
	filePath  string
	startedAt time.Time
	progress  int
	paused    bool
	resume    chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}
}

// Driver streams local G-code files to the printer, one confirmed line
// at a time. It implements state.JobStatus.
type Driver struct {
	sender Sender
	hooks  StateHooks
	repo   *SQLiteRepository
	logger Logger

	mu  sync.Mutex
	job *activeJob
}

// NewDriver creates a Driver. repo may be nil when job persistence is
// not wanted (tests, diskless setups).
func NewDriver(sender Sender, hooks StateHooks, repo *SQLiteRepository) *Driver {
	return &Driver{
		sender: sender,
		hooks:  hooks,
		repo:   repo,
		logger: noopLogger{},
	}
}

// SetLogger sets a logger for job lifecycle events.
func (d *Driver) SetLogger(logger Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// Printing reports whether a job is currently streaming. Satisfies
// state.JobStatus; the manager consults it when interpreting SD
// telemetry.
func (d *Driver) Printing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.job != nil
}

// Status returns a snapshot of the current job, or an inactive Status
// when nothing is streaming.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.job == nil {
		return Status{}
	}
	return Status{
		Active:    true,
		Paused:    d.job.paused,
		FileName:  d.job.fileName,
		FilePath:  d.job.filePath,
		StartedAt: d.job.startedAt,
		Progress:  d.job.progress,
	}
}

// Start begins streaming the file at path. It returns once the job is
// registered; streaming happens on a background goroutine that runs
// until completion, cancellation or a send failure.
func (d *Driver) Start(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("filejob: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("filejob: %s is a directory", path)
	}

	d.mu.Lock()
	if d.job != nil {
		d.mu.Unlock()
		return ErrJobInProgress
	}

	jobCtx, cancel := context.WithCancel(ctx)
	job := &activeJob{
		fileName:  filepath.Base(path),
		filePath:  path,
		startedAt: time.Now().UTC(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	d.job = job
	d.mu.Unlock()

	if d.repo != nil {
		id, err := d.repo.RecordStart(ctx, job.fileName, job.filePath, job.startedAt)
		if err != nil {
			d.logger.Warn("failed to record job start", "file", job.fileName, "error", err)
		} else {
			job.recordID = id
		}
	}

	d.hooks.JobStartedPrinting()
	d.logger.Info("job started", "file", job.fileName, "size", info.Size())

	go d.run(jobCtx, job, info.Size())
	return nil
}

// Pause asks the firmware to pause and parks the streaming goroutine
// after the in-flight line confirms.
func (d *Driver) Pause(ctx context.Context) error {
	d.mu.Lock()
	if d.job == nil {
		d.mu.Unlock()
		return ErrNoJob
	}
	if !d.job.paused {
		d.job.paused = true
		d.job.resume = make(chan struct{})
	}
	d.mu.Unlock()

	if _, err := d.sender.PausePrint(ctx); err != nil {
		return err
	}
	return nil
}

// Resume releases a paused job.
func (d *Driver) Resume(ctx context.Context) error {
	d.mu.Lock()
	if d.job == nil {
		d.mu.Unlock()
		return ErrNoJob
	}
	if !d.job.paused {
		d.mu.Unlock()
		return ErrNotPaused
	}
	if _, err := d.sender.ResumePrint(ctx); err != nil {
		d.mu.Unlock()
		return err
	}
	d.job.paused = false
	close(d.job.resume)
	d.job.resume = nil
	d.mu.Unlock()
	return nil
}

// Stop aborts the current job. The streaming goroutine exits after the
// in-flight line settles.
func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.job == nil {
		d.mu.Unlock()
		return ErrNoJob
	}
	cancel := d.job.cancel
	resume := d.job.resume
	d.job.paused = false
	d.job.resume = nil
	d.mu.Unlock()

	cancel()
	if resume != nil {
		close(resume)
	}

	if _, err := d.sender.StopPrint(ctx); err != nil {
		return err
	}
	return nil
}

// Wait blocks until the current job's goroutine exits. Returns
// immediately when nothing is streaming.
func (d *Driver) Wait() {
	d.mu.Lock()
	job := d.job
	d.mu.Unlock()
	if job != nil {
		<-job.done
	}
}

// run streams the job to completion. totalBytes drives progress.
func (d *Driver) run(ctx context.Context, job *activeJob, totalBytes int64) {
	defer close(job.done)

	outcome, err := d.stream(ctx, job, totalBytes)
	if err != nil && ctx.Err() == nil {
		d.logger.Error("job failed", "file", job.fileName, "error", err)
	}

	d.mu.Lock()
	d.job = nil
	d.mu.Unlock()

	switch outcome {
	case OutcomeCompleted:
		d.hooks.TelemetryProgress(100)
		d.hooks.JobStoppedPrinting()
	default:
		d.hooks.NotPrinting()
	}

	if d.repo != nil && job.recordID != 0 {
		if err := d.repo.RecordFinish(context.Background(), job.recordID, time.Now().UTC(), outcome); err != nil {
			d.logger.Warn("failed to record job finish", "file", job.fileName, "error", err)
		}
	}
	d.logger.Info("job finished", "file", job.fileName, "outcome", outcome)
}

// stream sends the file line by line and reports the outcome.
func (d *Driver) stream(ctx context.Context, job *activeJob, totalBytes int64) (string, error) {
	f, err := os.Open(job.filePath)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("filejob: open %s: %w", job.filePath, err)
	}
	defer f.Close() //nolint:errcheck

	var sent int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		raw := scanner.Text()
		sent += int64(len(raw)) + 1

		if err := d.waitIfPaused(ctx); err != nil {
			return OutcomeCancelled, nil
		}

		line := stripComment(raw)
		if line == "" {
			continue
		}

		if _, err := d.sender.Send(ctx, line); err != nil {
			if ctx.Err() != nil {
				return OutcomeCancelled, nil
			}
			return OutcomeFailed, err
		}

		d.updateProgress(job, sent, totalBytes)
	}
	if err := scanner.Err(); err != nil {
		return OutcomeFailed, fmt.Errorf("filejob: read %s: %w", job.filePath, err)
	}
	return OutcomeCompleted, nil
}

// waitIfPaused parks until the job is resumed or cancelled.
func (d *Driver) waitIfPaused(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var resume chan struct{}
	d.mu.Lock()
	if d.job != nil && d.job.paused {
		resume = d.job.resume
	}
	d.mu.Unlock()
	if resume == nil {
		return nil
	}
	select {
	case <-resume:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// updateProgress recomputes the percent complete and pushes it into
// the manager's telemetry side channel when it moves.
func (d *Driver) updateProgress(job *activeJob, sent, total int64) {
	if total <= 0 {
		return
	}
	percent := int(sent * 100 / total)
	if percent > 99 {
		percent = 99 // 100 is reserved for a fully streamed file
	}

	d.mu.Lock()
	changed := percent != job.progress
	job.progress = percent
	d.mu.Unlock()

	if changed {
		d.hooks.TelemetryProgress(percent)
	}
}

// stripComment removes G-code comments and surrounding whitespace.
func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
