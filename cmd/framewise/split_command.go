package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"framewise/internal/media"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var limit time.Duration

	cmd := &cobra.Command{
		Use:   "split <video>",
		Short: "Extract a video into numbered frame images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withLock(func() error {
				result, err := media.Split(cmd.Context(), cfg, args[0], limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d frames at %.3f fps into %s\n",
					result.Frames, result.FPS, cfg.Paths.FramesDir)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&limit, "limit", 0, "Only extract this much of the video (e.g. 2m30s)")
	return cmd
}
