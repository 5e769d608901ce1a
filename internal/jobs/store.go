package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotRunning is returned when finishing a job that is unknown or already finished.
	ErrNotRunning = errors.New("job is not running")
	// ErrInvalidJob reports a job that cannot be created from the given fields.
	ErrInvalidJob = errors.New("invalid job")
)

const defaultListLimit = 50

// Create records a new running job for the dataset.
func (s *Store) Create(ctx context.Context, dataset string, kind Kind) (*Job, error) {
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return nil, fmt.Errorf("%w: dataset is required", ErrInvalidJob)
	}
	switch kind {
	case KindGIF, KindAnalysis:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidJob, kind)
	}

	id := uuid.NewString()
	timestamp := formatTime(time.Now())
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (id, dataset, kind, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		dataset,
		string(kind),
		string(StatusRunning),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, id)
}

// Complete marks a running job as succeeded.
func (s *Store) Complete(ctx context.Context, id string, outcome Outcome) (*Job, error) {
	timestamp := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, frames = ?, width = ?, height = ?, bytes = ?, output_path = ?,
             error_kind = NULL, error_message = NULL, updated_at = ?, finished_at = ?
         WHERE id = ? AND status = ?`,
		string(StatusSucceeded),
		outcome.Frames,
		outcome.Width,
		outcome.Height,
		outcome.Bytes,
		nullableString(outcome.OutputPath),
		timestamp,
		timestamp,
		id,
		string(StatusRunning),
	)
	if err != nil {
		return nil, fmt.Errorf("complete job: %w", err)
	}
	if err := requireAffected(res, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Fail marks a running job as failed with a classified error.
func (s *Store) Fail(ctx context.Context, id, errorKind, message string) (*Job, error) {
	timestamp := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, error_kind = ?, error_message = ?, updated_at = ?, finished_at = ?
         WHERE id = ? AND status = ?`,
		string(StatusFailed),
		nullableString(errorKind),
		nullableString(message),
		timestamp,
		timestamp,
		id,
		string(StatusRunning),
	)
	if err != nil {
		return nil, fmt.Errorf("fail job: %w", err)
	}
	if err := requireAffected(res, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotRunning, id)
	}
	return nil
}

// Get fetches a job by identifier. A missing job returns nil without error.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Latest returns the most recent job of a kind for the dataset, or nil.
func (s *Store) Latest(ctx context.Context, dataset string, kind Kind) (*Job, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs WHERE dataset = ? AND kind = ?
         ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		dataset,
		string(kind),
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest job: %w", err)
	}
	return job, nil
}

// List returns jobs newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Job, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Dataset != "" {
		clauses = append(clauses, "dataset = ?")
		args = append(args, filter.Dataset)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}
