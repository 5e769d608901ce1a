package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a failed run.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindEmptyDataset Kind = "empty_dataset"
	KindDecode       Kind = "decode"
	KindSink         Kind = "sink"
	KindInProgress   Kind = "in_progress"
	KindCanceled     Kind = "canceled"
)

var (
	ErrNotFound     = errors.New("dataset not found")
	ErrEmptyDataset = errors.New("dataset has no frames")
	ErrDecode       = errors.New("frame decode failed")
	ErrSink         = errors.New("artifact write failed")
	ErrInProgress   = errors.New("artifact generation already in progress")
)

// Error describes why a run failed. Match it with errors.Is against the
// exported sentinels, or with errors.As to read the dataset and path.
type Error struct {
	Kind    Kind
	Dataset string
	// Path is the frame or output file involved, when there is one.
	Path string
	Err  error
}

func (e *Error) Error() string {
	label := "run canceled"
	if s := e.sentinel(); s != nil {
		label = s.Error()
	}
	msg := fmt.Sprintf("dataset %q: %s", e.Dataset, label)
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind. Canceled runs have no sentinel;
// they match context.Canceled or context.DeadlineExceeded through Unwrap.
func (e *Error) Is(target error) bool {
	s := e.sentinel()
	return s != nil && target == s
}

// ErrorKind reports the kind as a string for job records and log fields.
func (e *Error) ErrorKind() string {
	return string(e.Kind)
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindNotFound:
		return ErrNotFound
	case KindEmptyDataset:
		return ErrEmptyDataset
	case KindDecode:
		return ErrDecode
	case KindSink:
		return ErrSink
	case KindInProgress:
		return ErrInProgress
	}
	return nil
}

// KindOf extracts the failure kind from err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

func newError(kind Kind, dataset, path string, err error) *Error {
	return &Error{Kind: kind, Dataset: dataset, Path: path, Err: err}
}
