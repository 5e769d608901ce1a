// Package metadata parses the per-dataset result text written by the analysis
// script. Each line is an R print of a single string, such as
//
//	[1] "accuracy: 0.93"
//
// so a fixed number of leading and trailing characters is stripped before the
// remainder is split into a key and a value on the first ": ".
package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNotFound reports that the dataset has no result text file.
var ErrNotFound = errors.New("metadata file not found")

// Options controls parsing.
type Options struct {
	MaxLines    int
	StripPrefix int
	StripSuffix int
}

// DefaultOptions matches R's print format for character vectors.
func DefaultOptions() Options {
	return Options{MaxLines: 4, StripPrefix: 5, StripSuffix: 1}
}

// Entry is one key/value line.
type Entry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Load reads and parses the file at path.
func Load(path string, opts Options) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer file.Close()
	return Parse(file, opts)
}

// Parse reads up to opts.MaxLines lines from r. Blank lines count toward the
// limit but produce no entry.
func Parse(r io.Reader, opts Options) ([]Entry, error) {
	if opts.MaxLines <= 0 {
		opts.MaxLines = DefaultOptions().MaxLines
	}
	scanner := bufio.NewScanner(r)
	entries := make([]Entry, 0, opts.MaxLines)
	for lines := 0; lines < opts.MaxLines && scanner.Scan(); lines++ {
		body := strip(strings.TrimRight(scanner.Text(), "\r"), opts.StripPrefix, opts.StripSuffix)
		if strings.TrimSpace(body) == "" {
			continue
		}
		key, value, _ := strings.Cut(body, ": ")
		key = strings.TrimSpace(key)
		entries = append(entries, Entry{
			Key:   key,
			Label: Label(key),
			Value: strings.TrimSpace(value),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return entries, nil
}

// Label turns a key such as "mean_error" into "Mean Error".
func Label(key string) string {
	spaced := strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == '.' {
			return ' '
		}
		return r
	}, key)
	spaced = strings.Join(strings.FieldsFunc(spaced, unicode.IsSpace), " ")
	return cases.Title(language.Und).String(spaced)
}

// strip removes prefix leading and suffix trailing bytes, returning "" when
// the line is too short.
func strip(line string, prefix, suffix int) string {
	if prefix+suffix >= len(line) {
		return ""
	}
	return line[prefix : len(line)-suffix]
}
