package config

import (
	"fmt"
	"strings"
)

// Validate checks semantic constraints that normalization cannot repair.
func (c *Config) Validate() error {
	var problems []string

	if c.Inference.ConfidenceThreshold > 1 {
		problems = append(problems, fmt.Sprintf("inference.confidence_threshold must be in (0, 1], got %v", c.Inference.ConfidenceThreshold))
	}
	if c.Warmup.Proportion < 0 || c.Warmup.Proportion > 1 {
		problems = append(problems, fmt.Sprintf("warmup.proportion must be in [0, 1], got %v", c.Warmup.Proportion))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
