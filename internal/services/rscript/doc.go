// Package rscript runs the dataset analysis R script.
//
// The client invokes Rscript non-interactively with an expression that
// sources the configured script and prints the result of calling its entry
// function with the dataset id:
//
//	Rscript --vanilla -e 'source("/srv/tcp.R"); print(main(dataset = "demo"))'
//
// Printed output is returned line by line. Failures are tagged with the
// services error markers so callers can classify them.
package rscript
