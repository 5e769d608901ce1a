package main

import (
	"fmt"
	"strings"
	"time"

	"framereel/internal/api"
)

func jobStatusKind(status string) statusKind {
	switch status {
	case "succeeded":
		return statusOK
	case "failed":
		return statusError
	case "running":
		return statusInfo
	default:
		return statusWarn
	}
}

func describeJob(job api.Job) string {
	parts := []string{job.Status}
	if job.FinishedAt != "" {
		parts = append(parts, "at "+job.FinishedAt)
	}
	if job.ErrorKind != "" {
		parts = append(parts, "("+job.ErrorKind+")")
	}
	return strings.Join(parts, " ")
}

// dependencyRows renders analysis dependencies. Optional ones are only
// optional because analysis is disabled, so they show as skipped.
func dependencyRows(deps []api.DependencyStatus) []statusRow {
	rows := make([]statusRow, 0, len(deps))
	for _, dep := range deps {
		if dep.Available {
			message := "Ready"
			if dep.Target != "" {
				message = fmt.Sprintf("Ready (%s: %s)", dependencyNoun(dep.Kind), dep.Target)
			}
			rows = append(rows, newRow(dep.Name, statusOK, message))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusSkip
		}
		rows = append(rows, newRow(dep.Name, kind, detail))
	}
	return rows
}

func dependencyNoun(kind string) string {
	if kind == "" {
		return "binary"
	}
	return kind
}

func checkRows(checks []api.CheckResult) []statusRow {
	rows := make([]statusRow, 0, len(checks))
	for _, check := range checks {
		kind := statusOK
		switch {
		case !check.Passed:
			kind = statusError
		case strings.EqualFold(check.Detail, "disabled"):
			kind = statusSkip
		}
		rows = append(rows, newRow(check.Name, kind, check.Detail))
	}
	return rows
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDurationMS(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
