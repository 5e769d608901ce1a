// Package daemon coordinates the long-running framereel process.
//
// It wires configuration, the job store, the GIF pipeline, the R analysis
// client, and notifications into a single lifecycle with flock-based locking
// to prevent multiple instances. Every pipeline or analysis trigger is
// recorded as a job, logged with its job id, and announced to the configured
// notifiers.
//
// The HTTP surface lives in api_server.go: synchronous GIF generation, the
// result page and its JSON twin, analysis, job history, status, and read-only
// static serving of the results directory.
//
// Keep orchestration logic here: frame handling belongs to the pipeline and
// script execution to the rscript client.
package daemon
