// Package logs reads the daemon log file for the CLI.
//
// Last returns the final lines of a file with bounded memory. Follow prints
// those lines and then keeps polling for appended output until the context
// ends. Both accept a substring filter so a single dataset or job can be
// isolated from the shared log.
package logs
