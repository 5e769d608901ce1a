// Package preflight provides readiness checks for the filesystem paths and
// external services framereel depends on.
//
// These checks run in two contexts:
//   - The daemon's status endpoint reports RunAll alongside dependency checks.
//   - The CLI "framereel status" command renders the same results as a table.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
