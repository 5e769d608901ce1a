package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"framereel/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var opts logs.Options
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs [dataset]",
		Short: "Show the daemon log, optionally only lines for one dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 && opts.Match == "" {
				opts.Match = args[0]
			}
			path := filepath.Join(cfg.Paths.LogDir, "framereel.log")
			out := cmd.OutOrStdout()
			if follow {
				return logs.Follow(cmd.Context(), path, out, opts)
			}
			lines, _, err := logs.Last(path, opts)
			if err != nil {
				return err
			}
			for _, line := range lines {
				if _, err := out.Write([]byte(line + "\n")); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.Lines, "lines", "n", 50, "Number of trailing lines")
	cmd.Flags().StringVar(&opts.Match, "grep", "", "Only show lines containing this text")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	return cmd
}
