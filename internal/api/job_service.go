package api

import (
	"context"

	"framereel/internal/jobs"
)

// JobReader abstracts job persistence interactions needed for API queries.
type JobReader interface {
	List(ctx context.Context, filter jobs.Filter) ([]*jobs.Job, error)
	Get(ctx context.Context, id string) (*jobs.Job, error)
	Summary(ctx context.Context) (jobs.Summary, error)
}

// JobService exposes read-only job operations returning API DTOs.
type JobService struct {
	store JobReader
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(store JobReader) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store}
}

// List returns jobs matching the filter, newest first.
func (s *JobService) List(ctx context.Context, filter jobs.Filter) ([]Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	list, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return FromJobs(list), nil
}

// Summary returns job counts by status.
func (s *JobService) Summary(ctx context.Context) (JobSummary, error) {
	if s == nil || s.store == nil {
		return JobSummary{}, nil
	}
	summary, err := s.store.Summary(ctx)
	if err != nil {
		return JobSummary{}, err
	}
	return FromSummary(summary), nil
}

// Describe fetches a single job. A missing job returns nil without error.
func (s *JobService) Describe(ctx context.Context, id string) (*Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.Get(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}
