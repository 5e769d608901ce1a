package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// GenerateMessage is the message returned when a GIF run succeeds.
const GenerateMessage = "GIF Generated!"

// Job describes a recorded run in a transport-friendly format.
type Job struct {
	ID           string `json:"id"`
	Dataset      string `json:"dataset"`
	Kind         string `json:"kind"`
	Status       string `json:"status"`
	Frames       int    `json:"frames"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Bytes        int64  `json:"bytes,omitempty"`
	OutputPath   string `json:"outputPath,omitempty"`
	ErrorKind    string `json:"errorKind,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
	FinishedAt   string `json:"finishedAt,omitempty"`
	DurationMS   int64  `json:"durationMs,omitempty"`
}

// JobSummary counts jobs by status.
type JobSummary struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// GenerateResponse is returned by GET /gif/{id}.
type GenerateResponse struct {
	Message    string `json:"message"`
	ID         string `json:"id"`
	Job        string `json:"job,omitempty"`
	Frames     int    `json:"frames"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Bytes      int64  `json:"bytes"`
	DurationMS int64  `json:"durationMs"`
}

// AnalysisResponse is returned by GET /r/{id}.
type AnalysisResponse struct {
	ID     string   `json:"id"`
	Result []string `json:"result"`
	Job    string   `json:"job,omitempty"`
}

// MetadataEntry is one parsed line of result.txt.
type MetadataEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ResultView is the data behind the result page.
type ResultView struct {
	ID        string          `json:"id"`
	GIF       string          `json:"gif"`
	GIFExists bool            `json:"gifExists"`
	Data      []MetadataEntry `json:"data"`
	DataError string          `json:"dataError,omitempty"`
	LastJob   *Job            `json:"lastJob,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Target      string `json:"target"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult mirrors a preflight check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	ResultsDir   string             `json:"resultsDir"`
	JobsDBPath   string             `json:"jobsDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	InFlight     []string           `json:"inFlight"`
	Jobs         JobSummary         `json:"jobs"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Checks       []CheckResult      `json:"checks"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
