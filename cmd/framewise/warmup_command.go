package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"framewise/internal/frames"
	"framewise/internal/warmup"
)

func newWarmupCommand(ctx *commandContext) *cobra.Command {
	var proportion float64
	var seed int64

	cmd := &cobra.Command{
		Use:   "warmup",
		Short: "Submit a random sample of frames ahead of the full pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("proportion") {
				cfg.Warmup.Proportion = proportion
			}
			if cmd.Flags().Changed("seed") {
				cfg.Warmup.Seed = seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return ctx.withLock(func() error {
				store, err := ctx.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				strat, err := ctx.newStrategy()
				if err != nil {
					return err
				}

				bar := progressbar.NewOptions(-1,
					progressbar.OptionSetWriter(progressWriter()),
					progressbar.OptionSetDescription("warming up"),
					progressbar.OptionClearOnFinish(),
				)
				result, err := warmup.Run(cmd.Context(), strat, store, cfg, func(*frames.Record) {
					_ = bar.Add(1)
				})
				_ = bar.Finish()
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Warmed up %d frames: %d answered, %d pending, %d failed\n",
					result.Sampled, result.Answered, result.Pending, result.Failed)
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&proportion, "proportion", 0, "Share of frames to sample (overrides the configured value)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Sample seed; 0 draws a fresh sample")
	return cmd
}
