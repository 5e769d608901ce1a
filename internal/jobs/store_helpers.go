package jobs

import (
	"database/sql"
	"errors"
	"time"
)

// timestampLayout keeps a fixed fraction width so stored values sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const jobColumns = `id, dataset, kind, status, frames, width, height, bytes,
    output_path, error_kind, error_message, created_at, updated_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner rowScanner) (*Job, error) {
	var (
		job          Job
		kind, status string
		outputPath   sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		createdAt    string
		updatedAt    string
		finishedAt   sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.Dataset,
		&kind,
		&status,
		&job.Frames,
		&job.Width,
		&job.Height,
		&job.Bytes,
		&outputPath,
		&errorKind,
		&errorMessage,
		&createdAt,
		&updatedAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}
	job.Kind = Kind(kind)
	job.Status = Status(status)
	job.OutputPath = outputPath.String
	job.ErrorKind = errorKind.String
	job.ErrorMessage = errorMessage.String
	if t, err := parseTimeString(createdAt); err == nil {
		job.CreatedAt = t
	}
	if t, err := parseTimeString(updatedAt); err == nil {
		job.UpdatedAt = t
	}
	if finishedAt.Valid {
		if t, err := parseTimeString(finishedAt.String); err == nil {
			job.FinishedAt = &t
		}
	}
	return &job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
