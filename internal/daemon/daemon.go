package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"framereel/internal/config"
	"framereel/internal/deps"
	"framereel/internal/frames"
	"framereel/internal/jobs"
	"framereel/internal/logging"
	"framereel/internal/notifications"
	"framereel/internal/pipeline"
	"framereel/internal/preflight"
	"framereel/internal/services/rscript"
)

// Generator produces the animated artifact for a dataset.
type Generator interface {
	Run(ctx context.Context, datasetID string) (pipeline.Result, error)
	Busy() []string
}

// Analyzer runs the statistical script for a dataset.
type Analyzer interface {
	Analyze(ctx context.Context, datasetID string) ([]string, error)
}

// Option customizes daemon construction.
type Option func(*Daemon)

// WithGenerator replaces the config-built pipeline.
func WithGenerator(g Generator) Option {
	return func(d *Daemon) {
		if g != nil {
			d.generator = g
		}
	}
}

// WithAnalyzer replaces the config-built analysis client.
func WithAnalyzer(a Analyzer) Option {
	return func(d *Daemon) {
		if a != nil {
			d.analyzer = a
		}
	}
}

// WithNotifier replaces the config-built notification service.
func WithNotifier(n notifications.Service) Option {
	return func(d *Daemon) {
		if n != nil {
			d.notifier = n
		}
	}
}

// Daemon owns the job store, pipeline, and API server for one process.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *jobs.Store
	source    *frames.Source
	generator Generator
	analyzer  Analyzer
	notifier  notifications.Service
	api       *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	ResultsDir   string
	JobsDBPath   string
	LockFilePath string
	InFlight     []string
	Jobs         jobs.Summary
	Dependencies []deps.Status
	Checks       []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and job store")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	lockPath := filepath.Join(cfg.Paths.LogDir, "framereeld.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		source:   frames.NewSource(cfg.Paths.ResultsDir, cfg.Animation.FrameMarker, cfg.Animation.OutputName),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.generator == nil {
		p, err := pipeline.NewFromConfig(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		d.generator = p
	}
	if d.analyzer == nil && cfg.Analysis.Enabled {
		client, err := rscript.NewFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("build analysis client: %w", err)
		}
		d.analyzer = client
	}
	if d.notifier == nil {
		d.notifier = notifications.NewService(cfg, logger)
	}

	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, fails jobs orphaned by a previous process,
// and starts the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another framereeld instance is already running")
	}

	if n, err := d.store.MarkInterrupted(ctx); err != nil {
		d.logger.Warn("failed to reset interrupted jobs", logging.Error(err))
	} else if n > 0 {
		d.logger.Info("marked interrupted jobs as failed", logging.Int64("count", n))
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("framereel daemon started",
		logging.String("lock", d.lockPath),
		logging.String("results_dir", d.cfg.Paths.ResultsDir),
	)
	return nil
}

// Stop stops the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("framereel daemon stopped")
}

// Close releases resources held by the daemon. The job store is owned by the
// caller and stays open.
func (d *Daemon) Close() error {
	d.Stop()
	return d.notifier.Close()
}

// Addr returns the API listener address once started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Status returns the current daemon status including preflight checks.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		ResultsDir:   d.cfg.Paths.ResultsDir,
		JobsDBPath:   d.store.Path(),
		LockFilePath: d.lockPath,
		InFlight:     d.generator.Busy(),
		Dependencies: preflight.CheckSystemDeps(d.cfg),
		Checks:       append(preflight.RunAll(ctx, d.cfg), preflight.CheckAnalysisFromConfig(d.cfg)),
	}
	if summary, err := d.store.Summary(ctx); err != nil {
		d.logger.Warn("job summary unavailable", logging.Error(err))
	} else {
		status.Jobs = summary
	}
	return status
}
