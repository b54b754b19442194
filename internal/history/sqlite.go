package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ondraz/printlink/internal/state"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

// SQLiteRepository implements Repository using SQLite.
//
// It writes to the state_transitions table created by the initial
// schema migration.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite transition history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts a new transition row.
//
// Timestamps are written explicitly in RFC3339 UTC so reads do not
// depend on SQLite's own datetime formatting.
func (r *SQLiteRepository) Record(ctx context.Context, tr state.Transition) error {
	if tr.From == "" || tr.To == "" {
		return fmt.Errorf("history: transition states are required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO state_transitions (from_state, to_state, source, command_id, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(tr.From),
		string(tr.To),
		string(tr.Source),
		tr.CommandID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("history: inserting transition: %w", err)
	}

	return nil
}

// Recent returns recent transitions ordered newest first.
// Limit defaults to 50 and is clamped to 200.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]TransitionRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, from_state, to_state, source, command_id, recorded_at
		 FROM state_transitions
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: querying transitions: %w", err)
	}
	defer rows.Close()

	records := make([]TransitionRecord, 0, limit)
	for rows.Next() {
		var rec TransitionRecord
		var from, to, source, recordedAt string

		if err := rows.Scan(&rec.ID, &from, &to, &source, &rec.CommandID, &recordedAt); err != nil {
			return nil, fmt.Errorf("history: scanning transition: %w", err)
		}

		rec.From = state.State(from)
		rec.To = state.State(to)
		rec.Source = state.Source(source)

		timestamp, err := parseTimestamp(recordedAt)
		if err != nil {
			return nil, err
		}
		rec.RecordedAt = timestamp

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating transitions: %w", err)
	}

	return records, nil
}

// Prune deletes transitions older than the given duration.
// Returns the number of rows deleted.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("history: olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM state_transitions WHERE recorded_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("history: deleting transitions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseTimestamp parses a timestamp stored in SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("history: recorded_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	// Rows created via the column default use SQLite's datetime format.
	fallback, fallbackErr := time.Parse("2006-01-02 15:04:05", value)
	if fallbackErr == nil {
		return fallback.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("history: parsing recorded_at: %w", err)
}
