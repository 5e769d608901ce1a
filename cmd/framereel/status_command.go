package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"framereel/internal/api"
	"framereel/internal/apiclient"
	"framereel/internal/daemonctl"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// A nil client still yields the offline snapshot.
			client, _ := apiclient.New(ctx.apiBind(), cfg.Paths.APIToken)
			var source daemonctl.StatusClient
			if client != nil {
				source = client
			}
			status, err := daemonctl.BuildStatusSnapshot(cmd.Context(), source, cfg)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			printStatus(out, status, shouldColorize(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func printStatus(out io.Writer, status api.DaemonStatus, colorize bool) {
	system := []statusRow{newRow("Daemon", statusError, "Not running")}
	if status.Running {
		system[0] = newRow("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID))
	}
	system = append(system, newRow("Results", statusInfo, status.ResultsDir))
	if len(status.InFlight) > 0 {
		system = append(system, newRow("In flight", statusInfo, strings.Join(status.InFlight, ", ")))
	}
	writeSection(out, "System Status", append(system, checkRows(status.Checks)...), colorize)
	fmt.Fprintln(out)

	writeSection(out, "Dependencies", dependencyRows(status.Dependencies), colorize)
	fmt.Fprintln(out)

	writeSection(out, "Jobs", nil, colorize)
	jobs := status.Jobs
	fmt.Fprintln(out, renderTable(
		[]string{"Total", "Running", "Succeeded", "Failed"},
		[][]string{{
			fmt.Sprint(jobs.Total),
			fmt.Sprint(jobs.Running),
			fmt.Sprint(jobs.Succeeded),
			fmt.Sprint(jobs.Failed),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))
}
