package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framewise/internal/analysis"
	"framewise/internal/frames"
	"framewise/internal/media"
	"framewise/internal/prefetch"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var fps float64
	var sourceVideo string

	cmd := &cobra.Command{
		Use:   "render <output.mp4>",
		Short: "Render the annotated frames into a video",
		Long: "Walk the run in frame order, refresh any still-pending answers, " +
			"draw each frame's outcome onto the image, and encode the result. " +
			"The frame rate comes from --fps or is probed from --video.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if fps <= 0 && sourceVideo != "" {
				info, err := media.Probe(cmd.Context(), cfg.Tools.FFprobe, sourceVideo)
				if err != nil {
					return err
				}
				fps = info.FPS
			}
			if fps <= 0 {
				return fmt.Errorf("frame rate unknown; pass --fps or --video")
			}

			return ctx.withLock(func() error {
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

				// Update action: pending frames get one more chance to settle
				// while the video is being written.
				pf, err := prefetch.NewPrefetcher(strat, store, cfg.Paths.FramesDir, prefetch.ActionUpdate, indices,
					prefetch.WithWorkers(cfg.Prefetch.Workers),
					prefetch.WithWindow(cfg.Prefetch.Window),
					prefetch.WithLogger(logger),
				)
				if err != nil {
					return err
				}
				defer pf.Close()

				analyzer := &analysis.StatusBorderAnalyzer{}
				runner, err := analysis.NewRunner(cfg, analyzer,
					analysis.WithLogger(logger),
					analysis.WithProgressWriter(progressWriter()),
				)
				if err != nil {
					return err
				}
				if err := runner.Run(cmd.Context(), pf, fps, args[0]); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d frames (%d yes) to %s\n",
					len(indices), analyzer.YesCount(), args[0])
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&fps, "fps", 0, "Output frame rate")
	cmd.Flags().StringVar(&sourceVideo, "video", "", "Probe this video for the frame rate")
	return cmd
}
