package filejob

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Job outcomes persisted to the jobs table.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// JobRecord is one row of the jobs table.
type JobRecord struct {
	ID         int64      `json:"id"`
	FileName   string     `json:"file_name"`
	FilePath   string     `json:"file_path"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Outcome    string     `json:"outcome,omitempty"`
}

// defaultRecentJobs caps Recent when the caller passes no limit.
const defaultRecentJobs = 20

// SQLiteRepository persists job records.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an open database. The
// jobs table must already exist (migrations run at startup).
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordStart inserts a new job row and returns its id.
func (r *SQLiteRepository) RecordStart(ctx context.Context, fileName, filePath string, startedAt time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (file_name, file_path, started_at) VALUES (?, ?, ?)`,
		fileName, filePath, startedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("filejob: record start: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("filejob: record start: %w", err)
	}
	return id, nil
}

// RecordFinish closes a job row with its outcome.
func (r *SQLiteRepository) RecordFinish(ctx context.Context, id int64, finishedAt time.Time, outcome string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET finished_at = ?, outcome = ? WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339), outcome, id,
	)
	if err != nil {
		return fmt.Errorf("filejob: record finish: %w", err)
	}
	return nil
}

// Recent returns the newest job records, newest first.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = defaultRecentJobs
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, file_name, file_path, started_at, finished_at, outcome
		 FROM jobs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("filejob: query jobs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var records []JobRecord
	for rows.Next() {
		var (
			rec        JobRecord
			startedAt  string
			finishedAt sql.NullString
			outcome    sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.FilePath, &startedAt, &finishedAt, &outcome); err != nil {
			return nil, fmt.Errorf("filejob: scan job: %w", err)
		}
		rec.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("filejob: parse started_at: %w", err)
		}
		if finishedAt.Valid && finishedAt.String != "" {
			t, err := time.Parse(time.RFC3339, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("filejob: parse finished_at: %w", err)
			}
			rec.FinishedAt = &t
		}
		rec.Outcome = outcome.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("filejob: iterate jobs: %w", err)
	}
	return records, nil
}
