package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"framewise/internal/config"
	"framewise/internal/frames"
	"framewise/internal/services"
)

// SplitResult summarizes a frame extraction.
type SplitResult struct {
	Frames int
	FPS    float64
}

// Split extracts a video into numbered frame images under the configured
// frames directory, one image per source frame starting at frame_0.jpg. A
// non-empty frames directory is refused so two videos never interleave; limit
// caps how much of the video is extracted, zero meaning all of it.
func Split(ctx context.Context, cfg *config.Config, videoPath string, limit time.Duration) (*SplitResult, error) {
	videoPath = strings.TrimSpace(videoPath)
	if videoPath == "" {
		return nil, services.Wrap(services.ErrValidation, "media", "split", "empty video path", nil)
	}
	if _, err := os.Stat(videoPath); err != nil {
		return nil, services.Wrap(services.ErrValidation, "media", "split", "video not readable", err)
	}

	framesDir := cfg.Paths.FramesDir
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "media", "split", "create frames directory", err)
	}
	existing, err := frames.Indices(framesDir)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "media", "split", "inspect frames directory", err)
	}
	if len(existing) > 0 {
		return nil, services.Wrap(services.ErrValidation, "media", "split",
			fmt.Sprintf("frames directory %s already holds %d frames", framesDir, len(existing)), nil)
	}

	info, err := Probe(ctx, cfg.Tools.FFprobe, videoPath)
	if err != nil {
		return nil, err
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-i", videoPath}
	if limit > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", limit.Seconds()))
	}
	args = append(args,
		"-start_number", "0",
		filepath.Join(framesDir, "frame_%d.jpg"),
	)

	cmd := exec.CommandContext(ctx, ffmpegBinary(cfg), args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "media", "split",
			strings.TrimSpace(string(output)), err)
	}

	extracted, err := frames.Indices(framesDir)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "media", "split", "count extracted frames", err)
	}
	return &SplitResult{Frames: len(extracted), FPS: info.FPS}, nil
}

func ffmpegBinary(cfg *config.Config) string {
	if binary := strings.TrimSpace(cfg.Tools.FFmpeg); binary != "" {
		return binary
	}
	return "ffmpeg"
}
