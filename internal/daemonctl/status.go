package daemonctl

import (
	"context"
	"os"

	"framereel/internal/api"
	"framereel/internal/apiclient"
	"framereel/internal/config"
	"framereel/internal/jobs"
	"framereel/internal/preflight"
)

// BuildStatusSnapshot asks the daemon for its status. When the daemon is
// unreachable it assembles the same view from local checks and the job
// database, with Running false.
func BuildStatusSnapshot(ctx context.Context, client StatusClient, cfg *config.Config) (api.DaemonStatus, error) {
	if client != nil {
		status, err := client.Status(ctx)
		if err == nil {
			return status, nil
		}
		if !apiclient.IsAPIUnavailable(err) {
			return api.DaemonStatus{}, err
		}
	}

	checks := preflight.RunAll(ctx, cfg)
	checks = append(checks, preflight.CheckAnalysisFromConfig(cfg))
	status := api.DaemonStatus{
		ResultsDir:   cfg.Paths.ResultsDir,
		JobsDBPath:   cfg.JobsDBPath(),
		InFlight:     []string{},
		Dependencies: api.FromDependencies(preflight.CheckSystemDeps(cfg)),
		Checks:       api.FromChecks(checks),
	}
	if _, err := os.Stat(cfg.JobsDBPath()); err != nil {
		return status, nil
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return status, nil
	}
	defer store.Close()
	if summary, err := store.Summary(ctx); err == nil {
		status.Jobs = api.FromSummary(summary)
	}
	return status, nil
}
