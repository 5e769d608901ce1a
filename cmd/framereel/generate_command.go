package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"framereel/internal/api"
	"framereel/internal/daemon"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var local bool
	var jsonOut bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:     "generate <dataset>",
		Aliases: []string{"gif"},
		Short:   "Render a dataset's frames into result.gif",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			runCtx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}

			var resp api.GenerateResponse
			if local {
				err := withLocalDaemon(ctx, func(d *daemon.Daemon) error {
					job, result, err := d.Generate(runCtx, id)
					if err != nil {
						return err
					}
					resp = api.GenerateResponse{
						Message:    api.GenerateMessage,
						ID:         id,
						Job:        job.ID,
						Frames:     result.Frames,
						Width:      result.Geometry.Width,
						Height:     result.Geometry.Height,
						Bytes:      result.Bytes,
						DurationMS: result.Duration.Milliseconds(),
					}
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
				resp, err = client.Generate(runCtx, id)
				if err != nil {
					return wrapAPIError(err, ctx.apiBind())
				}
			}

			if jsonOut {
				return writeJSON(cmd, resp)
			}
			printGenerateResult(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Run in this process instead of asking the daemon")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0 waits for the run)")
	return cmd
}

func printGenerateResult(out io.Writer, resp api.GenerateResponse) {
	fmt.Fprintln(out, resp.Message)
	fmt.Fprintf(out, "  %-10s %s\n", "Dataset:", resp.ID)
	fmt.Fprintf(out, "  %-10s %d\n", "Frames:", resp.Frames)
	fmt.Fprintf(out, "  %-10s %dx%d\n", "Size:", resp.Width, resp.Height)
	fmt.Fprintf(out, "  %-10s %s\n", "Bytes:", formatBytes(resp.Bytes))
	fmt.Fprintf(out, "  %-10s %s\n", "Took:", formatDurationMS(resp.DurationMS))
	if resp.Job != "" {
		fmt.Fprintf(out, "  %-10s %s\n", "Job:", resp.Job)
	}
}
