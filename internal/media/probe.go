package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"framewise/internal/services"
)

// Info is the subset of ffprobe output the pipeline needs.
type Info struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe inspects a video file with ffprobe and returns its dimensions, frame
// rate, and duration. A source without a usable video stream is a validation
// error.
func Probe(ctx context.Context, binary, path string) (*Info, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrValidation, "media", "probe", "empty video path", nil)
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error", "-hide_banner",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_type,width,height,r_frame_rate",
		"-show_format",
		"-of", "json",
		"--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "media", "probe",
			strings.TrimSpace(string(output)), err)
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "media", "probe", "parse ffprobe output", err)
	}
	if len(result.Streams) == 0 {
		return nil, services.Wrap(services.ErrValidation, "media", "probe",
			fmt.Sprintf("%s has no video stream", path), nil)
	}

	stream := result.Streams[0]
	fps, err := parseFrameRate(stream.RFrameRate)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "media", "probe", "frame rate", err)
	}

	info := &Info{Width: stream.Width, Height: stream.Height, FPS: fps}
	if result.Format.Duration != "" {
		if duration, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil {
			info.Duration = duration
		}
	}
	return info, nil
}

// parseFrameRate parses ffprobe's rational frame rate, e.g. "30000/1001".
func parseFrameRate(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty frame rate")
	}

	var fps float64
	if num, den, found := strings.Cut(value, "/"); found {
		numerator, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("frame rate numerator %q: %w", num, err)
		}
		denominator, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, fmt.Errorf("frame rate denominator %q: %w", den, err)
		}
		if denominator == 0 {
			return 0, fmt.Errorf("frame rate %q has zero denominator", value)
		}
		fps = numerator / denominator
	} else {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("frame rate %q: %w", value, err)
		}
		fps = parsed
	}

	if fps <= 0 {
		return 0, fmt.Errorf("frame rate %q is not positive", value)
	}
	return fps, nil
}
