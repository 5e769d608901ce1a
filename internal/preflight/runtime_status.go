package preflight

import (
	"fmt"

	"framereel/internal/config"
	"framereel/internal/deps"
)

// CheckAnalysisFromConfig summarises whether the R analysis endpoint can run.
func CheckAnalysisFromConfig(cfg *config.Config) Result {
	const name = "Analysis"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Analysis.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	for _, status := range CheckSystemDeps(cfg) {
		if !status.Available {
			return Result{Name: name, Detail: statusDetail(status)}
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s(dataset) via %s", cfg.Analysis.Function, cfg.Analysis.RscriptBinary)}
}

func statusDetail(status deps.Status) string {
	if status.Detail != "" {
		return status.Detail
	}
	return status.Name + " unavailable"
}
