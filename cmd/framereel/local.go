package main

import (
	"fmt"
	"os"

	"framereel/internal/daemon"
	"framereel/internal/jobs"
	"framereel/internal/logging"
)

// withLocalDaemon runs fn against an in-process daemon that is never started:
// runs are recorded in the job database and notifications fire, but no API
// server or instance lock is involved.
func withLocalDaemon(ctx *commandContext, fn func(*daemon.Daemon) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}
	defer func() {
		if closeErr := d.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warn: %v\n", closeErr)
		}
	}()
	return fn(d)
}
