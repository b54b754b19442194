package filejob

import "errors"

var (
	// ErrJobInProgress is returned when a job is started while another
	// one is still streaming.
	ErrJobInProgress = errors.New("filejob: a job is already in progress")

	// ErrNoJob is returned by pause, resume and stop when nothing is
	// streaming.
	ErrNoJob = errors.New("filejob: no job in progress")

	// ErrNotPaused is returned by resume when the job is not paused.
	ErrNotPaused = errors.New("filejob: job is not paused")
)
