package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"framereel/internal/api"
	"framereel/internal/daemon"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var local bool
	var jsonOut bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:     "analyze <dataset>",
		Aliases: []string{"r"},
		Short:   "Run the R analysis script for a dataset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			runCtx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}

			var resp api.AnalysisResponse
			if local {
				err := withLocalDaemon(ctx, func(d *daemon.Daemon) error {
					job, lines, err := d.Analyze(runCtx, id)
					if err != nil {
						return err
					}
					resp = api.AnalysisResponse{ID: id, Result: lines, Job: job.ID}
					return nil
				})
				if err != nil {
					return err
				}
			} else {
				client, err := ctx.client()
				if err != nil {
					return err
				}
				resp, err = client.Analyze(runCtx, id)
				if err != nil {
					return wrapAPIError(err, ctx.apiBind())
				}
			}

			if jsonOut {
				if resp.Result == nil {
					resp.Result = []string{}
				}
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Result) == 0 {
				fmt.Fprintf(out, "Analysis for %s produced no output\n", id)
				return nil
			}
			for _, line := range resp.Result {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Run in this process instead of asking the daemon")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0 uses analysis.timeout_seconds)")
	return cmd
}
