package warmup

import (
	"context"
	"math"
	"math/rand"
	"time"

	"framewise/internal/config"
	"framewise/internal/frames"
	"framewise/internal/prefetch"
	"framewise/internal/strategy"
)

// Result summarizes a warm-up pass.
type Result struct {
	Sampled  int
	Answered int
	Pending  int
	Failed   int
}

// Plan picks the warm-up sample: a shuffle of the indices truncated to
// ceil(len*proportion) entries, without replacement. A proportion at or below
// zero selects nothing; at or above one it selects every frame. The same seed
// always yields the same sample.
func Plan(indices []int, proportion float64, seed int64) []int {
	if len(indices) == 0 || proportion <= 0 {
		return nil
	}

	sample := make([]int, len(indices))
	copy(sample, indices)
	if proportion >= 1 {
		return sample
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(sample), func(i, j int) {
		sample[i], sample[j] = sample[j], sample[i]
	})

	count := int(math.Ceil(float64(len(indices)) * proportion))
	if count > len(sample) {
		count = len(sample)
	}
	return sample[:count]
}

// Run submits the configured warm-up sample through a process-action
// prefetcher and tallies the outcome. onFrame, when non-nil, is called after
// each frame completes. A zero seed draws a fresh sample every run.
func Run(ctx context.Context, strat strategy.Strategy, store *frames.Store, cfg *config.Config, onFrame func(*frames.Record)) (*Result, error) {
	indices, err := frames.Indices(cfg.Paths.FramesDir)
	if err != nil {
		return nil, err
	}

	seed := cfg.Warmup.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sample := Plan(indices, cfg.Warmup.Proportion, seed)

	result := &Result{Sampled: len(sample)}
	if len(sample) == 0 {
		return result, nil
	}

	pf, err := prefetch.NewPrefetcher(strat, store, cfg.Paths.FramesDir, prefetch.ActionProcess, sample,
		prefetch.WithWorkers(cfg.Prefetch.Workers),
		prefetch.WithWindow(cfg.Prefetch.Window),
	)
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	for _, index := range sample {
		record, err := pf.Get(ctx, index)
		if err != nil {
			return nil, err
		}
		switch record.Status {
		case frames.StatusAnswered:
			result.Answered++
		case frames.StatusFailed:
			result.Failed++
		default:
			result.Pending++
		}
		if onFrame != nil {
			onFrame(record)
		}
	}
	return result, nil
}
