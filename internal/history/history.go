package history

import (
	"context"
	"time"

	"github.com/ondraz/printlink/internal/state"
)

// TransitionRecord is a single persisted state transition.
type TransitionRecord struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// From is the state the printer left.
	From state.State `json:"from"`

	// To is the state the printer entered.
	To state.State `json:"to"`

	// Source identifies who caused the transition (empty if unattributed).
	Source state.Source `json:"source,omitempty"`

	// CommandID links the transition to the command that caused it.
	CommandID string `json:"command_id,omitempty"`

	// RecordedAt is the timestamp of the transition (UTC).
	RecordedAt time.Time `json:"recorded_at"`
}

// Repository stores and retrieves state transition history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// Record persists a state transition.
	Record(ctx context.Context, tr state.Transition) error

	// Recent returns recent transitions ordered newest first.
	// Implementations may clamp limit to sane bounds.
	Recent(ctx context.Context, limit int) ([]TransitionRecord, error)
}
