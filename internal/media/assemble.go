package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"framewise/internal/config"
	"framewise/internal/frames"
	"framewise/internal/services"
)

// Assemble encodes a directory of sequentially numbered frame images back
// into a video at the given frame rate. The frames must be contiguous from
// frame_0.jpg; gaps would silently shift every later frame, so they are
// refused.
func Assemble(ctx context.Context, cfg *config.Config, framesDir string, fps float64, outputPath string) error {
	if fps <= 0 {
		return services.Wrap(services.ErrValidation, "media", "assemble",
			fmt.Sprintf("frame rate %v is not positive", fps), nil)
	}
	outputPath = strings.TrimSpace(outputPath)
	if outputPath == "" {
		return services.Wrap(services.ErrValidation, "media", "assemble", "empty output path", nil)
	}

	indices, err := frames.Indices(framesDir)
	if err != nil {
		return services.Wrap(services.ErrTransient, "media", "assemble", "inspect frames directory", err)
	}
	if len(indices) == 0 {
		return services.Wrap(services.ErrValidation, "media", "assemble",
			fmt.Sprintf("%s holds no frames", framesDir), nil)
	}
	for i, index := range indices {
		if index != i {
			return services.Wrap(services.ErrValidation, "media", "assemble",
				fmt.Sprintf("frames are not contiguous: expected frame_%d.jpg, found frame_%d.jpg", i, index), nil)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "media", "assemble", "create output directory", err)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-framerate", fmt.Sprintf("%g", fps),
		"-start_number", "0",
		"-i", filepath.Join(framesDir, "frame_%d.jpg"),
		"-c:v", cfg.Render.Codec,
		"-pix_fmt", cfg.Render.PixelFormat,
		"-y", outputPath,
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary(cfg), args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return services.Wrap(services.ErrExternalTool, "media", "assemble",
			strings.TrimSpace(string(output)), err)
	}
	return nil
}
