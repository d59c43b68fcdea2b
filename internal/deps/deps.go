// Package deps verifies the external pieces the pipeline needs: the ffmpeg
// and ffprobe binaries and a reachable inference service.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"framewise/internal/config"
)

// Status reports the availability of one dependency.
type Status struct {
	Name      string
	Command   string
	Available bool
	Detail    string
}

// HealthChecker is the inference client slice needed for the service check.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckBinaries reports whether the configured media tools are on PATH,
// including their version line when available.
func CheckBinaries(cfg *config.Config) []Status {
	checks := []struct {
		name    string
		command string
	}{
		{"ffmpeg", cfg.Tools.FFmpeg},
		{"ffprobe", cfg.Tools.FFprobe},
	}

	results := make([]Status, 0, len(checks))
	for _, check := range checks {
		status := Status{Name: check.name, Command: strings.TrimSpace(check.command)}
		if status.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(status.Command); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", status.Command)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Detail = binaryVersion(status.Command)
		results = append(results, status)
	}
	return results
}

// CheckInference verifies the API key works against the remote service.
func CheckInference(ctx context.Context, client HealthChecker) Status {
	status := Status{Name: "inference", Command: "api"}
	if err := client.HealthCheck(ctx); err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Available = true
	return status
}

// binaryVersion returns the first line of `<binary> -version`, or empty when
// the probe fails.
func binaryVersion(binary string) string {
	output, err := exec.Command(binary, "-version").CombinedOutput()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}
