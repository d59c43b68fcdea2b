package main

import (
	"context"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"framewise/internal/frames"
	"framewise/internal/prefetch"
)

type runTally struct {
	Total    int
	Answered int
	Pending  int
	Failed   int
}

// drainRun pushes every extracted frame through a prefetcher and tallies the
// resulting statuses. workers and window override the configured values when
// positive.
func drainRun(ctx context.Context, cmdCtx *commandContext, action prefetch.Action, force bool, workers, window int, out io.Writer) (*runTally, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := cmdCtx.ensureLogger()
	if err != nil {
		return nil, err
	}

	indices, err := frames.Indices(cfg.Paths.FramesDir)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("no frames in %s; run `framewise split` first", cfg.Paths.FramesDir)
	}

	store, err := cmdCtx.openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	strat, err := cmdCtx.newStrategy()
	if err != nil {
		return nil, err
	}

	if workers <= 0 {
		workers = cfg.Prefetch.Workers
	}
	if window <= 0 {
		window = cfg.Prefetch.Window
	}
	pf, err := prefetch.NewPrefetcher(strat, store, cfg.Paths.FramesDir, action, indices,
		prefetch.WithWorkers(workers),
		prefetch.WithWindow(window),
		prefetch.WithForce(force),
		prefetch.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	bar := progressbar.NewOptions(len(indices),
		progressbar.OptionSetWriter(progressWriter()),
		progressbar.OptionSetDescription(string(action)+" frames"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	tally := &runTally{Total: len(indices)}
	for _, index := range indices {
		record, err := pf.Get(ctx, index)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", index, err)
		}
		switch record.Status {
		case frames.StatusAnswered:
			tally.Answered++
		case frames.StatusFailed:
			tally.Failed++
		default:
			tally.Pending++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	fmt.Fprintf(out, "%d frames: %d answered, %d pending, %d failed\n",
		tally.Total, tally.Answered, tally.Pending, tally.Failed)
	return tally, nil
}
