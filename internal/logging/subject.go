package logging

import "strings"

// FormatSubject builds the component/dataset/job prefix used in console output.
func FormatSubject(component, dataset, jobID string) string {
	component = strings.TrimSpace(component)
	dataset = strings.TrimSpace(dataset)
	jobID = strings.TrimSpace(jobID)
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	parts := make([]string, 0, 2)
	if component != "" {
		parts = append(parts, component)
	}
	switch {
	case dataset != "" && jobID != "":
		parts = append(parts, "Dataset "+dataset+" (job "+jobID+")")
	case dataset != "":
		parts = append(parts, "Dataset "+dataset)
	case jobID != "":
		parts = append(parts, "Job "+jobID)
	}
	return strings.Join(parts, " · ")
}
