package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"framereel/internal/api"
	"framereel/internal/apiclient"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var query apiclient.JobQuery
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent generation and analysis jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			list, err := client.Jobs(cmd.Context(), query)
			if err != nil {
				return wrapAPIError(err, ctx.apiBind())
			}
			if jsonOut {
				if list == nil {
					list = []api.Job{}
				}
				return writeJSON(cmd, list)
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			fmt.Fprintln(out, renderJobTable(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&query.Status, "status", "", "Filter by status (running, succeeded, failed)")
	cmd.Flags().StringVar(&query.Dataset, "dataset", "", "Filter by dataset id")
	cmd.Flags().IntVarP(&query.Limit, "limit", "n", 0, "Maximum number of jobs (server default when 0)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	cmd.AddCommand(newJobShowCommand(ctx))
	return cmd
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			job, err := client.Job(cmd.Context(), args[0])
			if err != nil {
				if apiclient.StatusCode(err) == 404 {
					return fmt.Errorf("job %s not found", args[0])
				}
				return wrapAPIError(err, ctx.apiBind())
			}
			if jsonOut {
				return writeJSON(cmd, job)
			}
			printJob(cmd.OutOrStdout(), job)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderJobTable(list []api.Job) string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			shortID(job.ID),
			job.Dataset,
			job.Kind,
			job.Status,
			framesCell(job),
			job.CreatedAt,
			truncate(job.ErrorKind, 16),
		})
	}
	return renderTable(
		[]string{"ID", "Dataset", "Kind", "Status", "Frames", "Created", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func printJob(out io.Writer, job api.Job) {
	fields := [][2]string{
		{"ID", job.ID},
		{"Dataset", job.Dataset},
		{"Kind", job.Kind},
		{"Status", job.Status},
		{"Created", job.CreatedAt},
		{"Finished", job.FinishedAt},
	}
	if job.Kind == "gif" && job.Status == "succeeded" {
		fields = append(fields,
			[2]string{"Frames", fmt.Sprintf("%d", job.Frames)},
			[2]string{"Size", fmt.Sprintf("%dx%d", job.Width, job.Height)},
			[2]string{"Bytes", formatBytes(job.Bytes)},
			[2]string{"Output", job.OutputPath},
		)
	}
	if job.DurationMS > 0 {
		fields = append(fields, [2]string{"Took", formatDurationMS(job.DurationMS)})
	}
	if job.ErrorKind != "" {
		fields = append(fields, [2]string{"Error", fmt.Sprintf("%s: %s", job.ErrorKind, job.ErrorMessage)})
	}
	for _, field := range fields {
		if strings.TrimSpace(field[1]) == "" {
			continue
		}
		fmt.Fprintf(out, "%-10s %s\n", field[0]+":", field[1])
	}
}

func framesCell(job api.Job) string {
	if job.Kind != "gif" || job.Frames == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", job.Frames)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit-1] + "…"
}
