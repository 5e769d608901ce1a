package frames

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var (
	// ErrNotFound reports a dataset directory that is missing, unreadable, or not a directory.
	ErrNotFound = errors.New("dataset not found")
	// ErrInvalidDataset reports an identifier that cannot name a dataset directory.
	ErrInvalidDataset = errors.New("invalid dataset id")
)

var datasetIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Frame is one input image of a dataset.
type Frame struct {
	Index int
	Name  string
	Path  string
	Size  int64
}

// Source lists frames beneath a results root.
type Source struct {
	root    string
	marker  string
	exclude string
}

// NewSource builds a Source. Files named exclude (the output artifact) are
// never returned even when they contain marker.
func NewSource(root, marker, exclude string) *Source {
	return &Source{root: root, marker: marker, exclude: exclude}
}

// Root returns the results directory the source reads from.
func (s *Source) Root() string {
	return s.root
}

// ValidateDatasetID rejects identifiers that are empty, hidden, or could escape the results root.
func ValidateDatasetID(id string) error {
	if !datasetIDPattern.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidDataset, id)
	}
	return nil
}

// Dir resolves the directory for a dataset without touching the filesystem.
func (s *Source) Dir(datasetID string) (string, error) {
	if err := ValidateDatasetID(datasetID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, datasetID), nil
}

// List returns the dataset's frames in natural name order. An empty slice with
// a nil error means the directory exists but holds no frames.
func (s *Source) List(ctx context.Context, datasetID string) ([]Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.Dir(datasetID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrNotFound, dir, err)
	}

	frames := make([]Frame, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !s.isFrameName(name) {
			continue
		}
		path := filepath.Join(dir, name)
		// Stat follows symlinks so linked frames count when they point at files.
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		frames = append(frames, Frame{Name: name, Path: path, Size: fi.Size()})
	}

	slices.SortFunc(frames, func(a, b Frame) int {
		return CompareNatural(a.Name, b.Name)
	})
	for i := range frames {
		frames[i].Index = i
	}
	return frames, nil
}

func (s *Source) isFrameName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if s.exclude != "" && name == s.exclude {
		return false
	}
	return strings.Contains(name, s.marker)
}
