package api

import (
	"framereel/internal/deps"
	"framereel/internal/jobs"
	"framereel/internal/metadata"
	"framereel/internal/preflight"
)

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:           job.ID,
		Dataset:      job.Dataset,
		Kind:         string(job.Kind),
		Status:       string(job.Status),
		Frames:       job.Frames,
		Width:        job.Width,
		Height:       job.Height,
		Bytes:        job.Bytes,
		OutputPath:   job.OutputPath,
		ErrorKind:    job.ErrorKind,
		ErrorMessage: job.ErrorMessage,
		DurationMS:   job.Duration().Milliseconds(),
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if job.FinishedAt != nil {
		dto.FinishedAt = job.FinishedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of jobs, skipping nil entries.
func FromJobs(list []*jobs.Job) []Job {
	out := make([]Job, 0, len(list))
	for _, job := range list {
		if job == nil {
			continue
		}
		out = append(out, FromJob(job))
	}
	return out
}

// FromSummary converts aggregated job counts.
func FromSummary(summary jobs.Summary) JobSummary {
	return JobSummary{
		Total:     summary.Total,
		Running:   summary.Running,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
	}
}

// FromMetadata converts parsed result.txt entries.
func FromMetadata(entries []metadata.Entry) []MetadataEntry {
	out := make([]MetadataEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, MetadataEntry{Key: e.Key, Label: e.Label, Value: e.Value})
	}
	return out
}

// FromDependencies converts dependency checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, dep := range statuses {
		out = append(out, DependencyStatus{
			Name:        dep.Name,
			Kind:        string(dep.Kind),
			Target:      dep.Target,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return out
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}
