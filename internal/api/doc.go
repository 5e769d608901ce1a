// Package api defines wire-format types and converters for the HTTP API.
// It translates internal job, metadata, dependency, and preflight models into
// transport-friendly DTOs so the CLI and browsers can render them without
// coupling to internal types.
//
// # Key Types
//
// Job: transport representation of a recorded pipeline or analysis run.
//
// GenerateResponse / AnalysisResponse: bodies of /gif/{id} and /r/{id}.
//
// ResultView: the data behind /result/{id} and /api/results/{id}.
//
// DaemonStatus: aggregated runtime information including job counts,
// in-flight datasets, dependencies, and preflight checks.
//
// # Design Notes
//
// DTOs use camelCase JSON tags, except the /gif and /r endpoints whose body
// shape is fixed ({"message","id"} and {"id","result"}). Timestamps use RFC3339
// with milliseconds.
package api
