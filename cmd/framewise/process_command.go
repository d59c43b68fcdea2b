package main

import (
	"github.com/spf13/cobra"

	"framewise/internal/prefetch"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var workers, window int

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Submit extracted frames to the detector",
		Long: "Submit every extracted frame for inference. Frames submitted by an " +
			"earlier run are skipped so an interrupted run can resume; use --force " +
			"to resubmit them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func() error {
				_, err := drainRun(cmd.Context(), ctx, prefetch.ActionProcess, force, workers, window, cmd.OutOrStdout())
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Resubmit frames that already have a remote query")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (defaults to the configured value)")
	cmd.Flags().IntVar(&window, "window", 0, "Look-ahead window (defaults to the configured value)")
	return cmd
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var workers, window int

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh pending frames against the detector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func() error {
				_, err := drainRun(cmd.Context(), ctx, prefetch.ActionUpdate, false, workers, window, cmd.OutOrStdout())
				return err
			})
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (defaults to the configured value)")
	cmd.Flags().IntVar(&window, "window", 0, "Look-ahead window (defaults to the configured value)")
	return cmd
}
