package jobs

import "time"

// Kind identifies what a job ran.
type Kind string

const (
	KindGIF      Kind = "gif"
	KindAnalysis Kind = "analysis"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ParseStatus normalizes a user supplied status filter.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusRunning, StatusSucceeded, StatusFailed:
		return Status(value), true
	}
	return "", false
}

// Job is one recorded run.
type Job struct {
	ID           string     `json:"id"`
	Dataset      string     `json:"dataset"`
	Kind         Kind       `json:"kind"`
	Status       Status     `json:"status"`
	Frames       int        `json:"frames"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Bytes        int64      `json:"bytes"`
	OutputPath   string     `json:"output_path,omitempty"`
	ErrorKind    string     `json:"error_kind,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Duration reports how long a finished job ran, or zero while running.
func (j Job) Duration() time.Duration {
	if j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(j.CreatedAt)
}

// Outcome carries the success details recorded by Complete.
type Outcome struct {
	Frames     int
	Width      int
	Height     int
	Bytes      int64
	OutputPath string
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status  Status
	Dataset string
	Limit   int
}

// Summary aggregates job counts by status.
type Summary struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
