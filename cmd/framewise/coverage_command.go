package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"framewise/internal/coverage"
	"framewise/internal/frames"
)

func newCoverageCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "coverage",
		Short: "Report how many frames have settled answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			indices, err := frames.Indices(cfg.Paths.FramesDir)
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			strat, err := ctx.newStrategy()
			if err != nil {
				return err
			}

			report, err := coverage.Compute(cmd.Context(), store, strat, indices)
			if errors.Is(err, coverage.ErrNoFrames) {
				return fmt.Errorf("no frames in %s; run `framewise split` first", cfg.Paths.FramesDir)
			}
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Answered", strconv.Itoa(report.WithAnswer)},
				{"Pending", strconv.Itoa(report.Pending)},
				{"Failed", strconv.Itoa(report.Failed)},
				{"Missing", strconv.Itoa(report.Missing)},
				{"Total", strconv.Itoa(report.Total)},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"State", "Frames"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "Coverage: %.1f%%\n", report.Fraction()*100)
			return nil
		},
	}
}
