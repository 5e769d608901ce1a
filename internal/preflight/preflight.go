package preflight

import (
	"context"
	"strings"

	"framereel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Results directory (always checked)
	results = append(results, CheckDirectoryAccess("Results directory", cfg.Paths.ResultsDir))
	results = append(results, CheckDiskSpace("Results volume", cfg.Paths.ResultsDir, minFreeBytes))

	// Log directory holds the job database and lock files
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	if cfg.MQTT.Enabled {
		results = append(results, CheckMQTTBroker(ctx, cfg.MQTT.BrokerURL))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
