// Package runlock serialises artifact generation per dataset.
//
// A Manager keeps an in-process set of keys that are currently running and,
// when configured with a directory, also holds a flock-based lock file per key
// so separate processes sharing a results root cannot race on one output path.
// Acquisition never waits: a second caller gets ErrBusy immediately.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/gofrs/flock"
)

// ErrBusy reports that another run already holds the key.
var ErrBusy = errors.New("run already in progress")

// Manager hands out exclusive per-key handles.
type Manager struct {
	dir string

	mu     sync.Mutex
	active map[string]struct{}
}

// New builds a Manager. An empty dir keeps locking in-process only.
func New(dir string) *Manager {
	return &Manager{dir: dir, active: make(map[string]struct{})}
}

// Handle is a held lock. Release it exactly once.
type Handle struct {
	m    *Manager
	key  string
	lock *flock.Flock
	once sync.Once
}

// Acquire claims key or fails fast with ErrBusy.
func (m *Manager) Acquire(key string) (*Handle, error) {
	m.mu.Lock()
	if _, held := m.active[key]; held {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrBusy, key)
	}
	m.active[key] = struct{}{}
	m.mu.Unlock()

	h := &Handle{m: m, key: key}
	if m.dir == "" {
		return h, nil
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		m.forget(key)
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(m.lockPath(key))
	ok, err := lock.TryLock()
	if err != nil {
		m.forget(key)
		return nil, fmt.Errorf("acquire lock for %s: %w", key, err)
	}
	if !ok {
		m.forget(key)
		return nil, fmt.Errorf("%w: %s (held by another process)", ErrBusy, key)
	}
	h.lock = lock
	return h, nil
}

// Active lists the keys currently held by this process.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.active))
	for key := range m.active {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Release frees the key. Calls after the first are no-ops.
func (h *Handle) Release() error {
	var err error
	h.once.Do(func() {
		if h.lock != nil {
			err = h.lock.Unlock()
		}
		h.m.forget(h.key)
	})
	return err
}

func (m *Manager) lockPath(key string) string {
	return filepath.Join(m.dir, key+".lock")
}

func (m *Manager) forget(key string) {
	m.mu.Lock()
	delete(m.active, key)
	m.mu.Unlock()
}
