package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"framereel/internal/api"
	"framereel/internal/daemon"
)

func newResultCommand(ctx *commandContext) *cobra.Command {
	var local bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "result <dataset>",
		Short: "Show a dataset's artifact and result metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			var view api.ResultView
			if local {
				err := withLocalDaemon(ctx, func(d *daemon.Daemon) error {
					var err error
					view, err = d.Result(cmd.Context(), id)
					return err
				})
				if err != nil {
					return err
				}
			} else {
				client, err := ctx.client()
				if err != nil {
					return err
				}
				view, err = client.Result(cmd.Context(), id)
				if err != nil {
					return wrapAPIError(err, ctx.apiBind())
				}
			}

			if jsonOut {
				return writeJSON(cmd, view)
			}
			printResultView(cmd.OutOrStdout(), view, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Read the results directory directly")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func printResultView(out io.Writer, view api.ResultView, colorize bool) {
	rows := []statusRow{newRow("Animation", statusWarn, "not generated yet; run `framereel generate "+view.ID+"`")}
	if view.GIFExists {
		rows[0] = newRow("Animation", statusOK, view.GIF)
	}
	if job := view.LastJob; job != nil {
		rows = append(rows, newRow("Last run", jobStatusKind(job.Status), describeJob(*job)))
	}
	switch {
	case view.DataError != "":
		rows = append(rows, newRow("Result data", statusError, view.DataError))
	case len(view.Data) == 0:
		rows = append(rows, newRow("Result data", statusInfo, "none"))
	}
	writeSection(out, "Result "+view.ID, rows, colorize)
	if len(view.Data) == 0 {
		return
	}

	table := make([][]string, 0, len(view.Data))
	for _, entry := range view.Data {
		table = append(table, []string{entry.Label, entry.Value})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, table, []columnAlignment{alignLeft, alignRight}))
}
