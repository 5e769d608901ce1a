// Package jobs records pipeline and analysis runs in SQLite.
//
// Every trigger of the GIF pipeline or the R analysis creates one Job row in
// the running state. The row is completed or failed when the run returns, so
// the daemon and CLI can report history, per-status counts, and the error kind
// of the last failure for a dataset.
//
// The database lives at <log_dir>/jobs.db. Schema changes bump schemaVersion
// in schema.go; operators delete the database to adopt a new schema.
package jobs
