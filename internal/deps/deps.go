package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// Kind distinguishes how a requirement is located.
type Kind string

const (
	// KindBinary is an executable resolved through PATH.
	KindBinary Kind = "binary"
	// KindScript is a file handed to an interpreter; it only needs to be readable.
	KindScript Kind = "script"
)

// Requirement names one external piece the analysis endpoint relies on.
type Requirement struct {
	Name        string
	Kind        Kind
	Target      string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Kind        Kind
	Target      string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Analysis returns the requirements of the R analysis endpoint. They become
// optional when analysis is disabled.
func Analysis(rscript, script string, enabled bool) []Requirement {
	return []Requirement{
		{
			Name:        "Rscript",
			Kind:        KindBinary,
			Target:      rscript,
			Description: "R interpreter for dataset analysis",
			Optional:    !enabled,
		},
		{
			Name:        "Analysis script",
			Kind:        KindScript,
			Target:      script,
			Description: "R entry point sourced per dataset",
			Optional:    !enabled,
		},
	}
}

// Check evaluates every requirement in order.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{
			Name:        req.Name,
			Kind:        req.Kind,
			Target:      strings.TrimSpace(req.Target),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if status.Target == "" {
			status.Detail = fmt.Sprintf("%s not configured", kindNoun(req.Kind))
			results = append(results, status)
			continue
		}
		switch req.Kind {
		case KindScript:
			status.Detail = checkScript(status.Target)
		default:
			status.Kind = KindBinary
			status.Detail = checkBinary(status.Target)
		}
		status.Available = status.Detail == ""
		results = append(results, status)
	}
	return results
}

func checkBinary(command string) string {
	if _, err := exec.LookPath(command); err != nil {
		return fmt.Sprintf("binary %q not found", command)
	}
	return ""
}

func checkScript(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("script %q not found", path)
	}
	if info.IsDir() {
		return fmt.Sprintf("script %q is a directory", path)
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return fmt.Sprintf("script %q not readable: %v", path, err)
	}
	return ""
}

func kindNoun(kind Kind) string {
	if kind == KindScript {
		return "script"
	}
	return "command"
}
