package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	defaultPoll = 250 * time.Millisecond
	maxLineSize = 1024 * 1024
)

// Options controls which lines are returned.
type Options struct {
	// Lines is the number of trailing lines to show. Zero shows none.
	Lines int
	// Match keeps only lines containing this substring.
	Match string
	// Poll is the follow interval. Zero uses 250ms.
	Poll time.Duration
}

func (o Options) keep(line string) bool {
	return o.Match == "" || strings.Contains(line, o.Match)
}

// Last returns the final matching lines of path and the offset of its end.
// A missing file yields no lines and offset zero.
func Last(path string, opts Options) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if info, err := file.Stat(); err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	} else if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}

	limit := opts.Lines
	var ring []string
	if limit > 0 {
		ring = make([]string, limit)
	}
	count, idx := 0, 0

	reader := bufio.NewReader(file)
	var offset int64
	for {
		line, complete, n, err := readLine(reader)
		if n > 0 && complete {
			offset += int64(n)
			if limit > 0 && opts.keep(line) {
				ring[idx] = line
				idx = (idx + 1) % limit
				count = min(count+1, limit)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("read log file: %w", err)
		}
	}

	lines := make([]string, count)
	if count == limit && limit > 0 {
		for i := range count {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// Follow writes the last opts.Lines matching lines to w, then writes newly
// appended lines until ctx ends. A truncated or rotated file is re-read from
// the start. It returns nil when ctx is canceled.
func Follow(ctx context.Context, path string, w io.Writer, opts Options) error {
	lines, offset, err := Last(path, opts)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		next, fresh, err := readFrom(path, offset)
		if err != nil {
			return err
		}
		offset = next
		for _, line := range fresh {
			if !opts.keep(line) {
				continue
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
}

// readFrom returns complete lines after offset. A partial trailing line is
// left for the next call.
func readFrom(path string, offset int64) (int64, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil, nil
		}
		return offset, nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, nil, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	var lines []string
	for {
		line, complete, n, err := readLine(reader)
		if n > 0 && complete {
			offset += int64(n)
			lines = append(lines, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, lines, nil
			}
			return offset, lines, fmt.Errorf("read log file: %w", err)
		}
	}
}

// readLine reads one newline-terminated line, reporting the bytes consumed.
// Lines longer than maxLineSize are cut.
func readLine(r *bufio.Reader) (string, bool, int, error) {
	var sb strings.Builder
	n := 0
	for {
		chunk, err := r.ReadSlice('\n')
		n += len(chunk)
		if sb.Len() < maxLineSize {
			sb.Write(chunk[:min(len(chunk), maxLineSize-sb.Len())])
		}
		switch {
		case err == nil:
			return strings.TrimRight(sb.String(), "\r\n"), true, n, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return sb.String(), false, n, err
		}
	}
}
