// Package services defines shared utilities consumed by the pipeline, the
// analysis runner, and the daemon's HTTP handlers.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, dataset identifiers, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures from external
//     tools classify consistently when recorded in job history.
//
// Integrations with external programs live in subpackages (see rscript).
package services
