package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"

	"framewise/internal/config"
	"framewise/internal/frames"
	"framewise/internal/inference"
	"framewise/internal/logging"
	"framewise/internal/strategy"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger. Console output falls back to JSON
// when stderr is not a terminal so piped logs stay parseable.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		if cfg.Logging.Format == "console" && !isatty.IsTerminal(os.Stderr.Fd()) {
			clone := *cfg
			clone.Logging.Format = "json"
			cfg = &clone
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*frames.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return frames.Open(cfg)
}

func (c *commandContext) newStrategy() (strategy.Strategy, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client := inference.NewFromConfig(cfg)
	return strategy.NewDetectorStrategyFromConfig(client, cfg), nil
}

// withLock serializes commands that mutate the data directory. A held lock
// fails fast instead of queueing behind another run.
func (c *commandContext) withLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire pipeline lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another framewise command holds %s", cfg.LockPath())
	}
	defer lock.Unlock()
	return fn()
}

// progressWriter silences progress bars when output is not a terminal.
func progressWriter() io.Writer {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return os.Stderr
	}
	return io.Discard
}
