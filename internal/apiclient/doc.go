// Package apiclient talks to a running framereeld over its HTTP API.
//
// The CLI uses it for every command that needs the daemon: generate, analyze,
// result, jobs, and status. Non-2xx responses decode into *Error so callers
// can branch on the HTTP status or the pipeline error kind.
package apiclient
