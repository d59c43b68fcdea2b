package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framewise/internal/deps"
	"framewise/internal/inference"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and the inference service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(cfg)
			statuses = append(statuses, deps.CheckInference(cmd.Context(), inference.NewFromConfig(cfg)))

			rows := make([][]string, 0, len(statuses))
			healthy := true
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
					healthy = false
				}
				rows = append(rows, []string{status.Name, state, status.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Dependency", "State", "Detail"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft}))

			if !healthy {
				return fmt.Errorf("one or more dependencies are unavailable")
			}
			return nil
		},
	}
}
