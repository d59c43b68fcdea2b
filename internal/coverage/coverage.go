// Package coverage reports how much of a run has settled answers.
package coverage

import (
	"context"
	"errors"

	"framewise/internal/frames"
	"framewise/internal/strategy"
)

// ErrNoFrames is reported when coverage is requested for an empty run. A
// fraction over zero frames is meaningless, so the caller has to decide what
// an empty run means.
var ErrNoFrames = errors.New("coverage: no frames")

// Report is the answer coverage of one run.
type Report struct {
	Total      int
	WithAnswer int
	Pending    int
	Failed     int
	Missing    int
}

// Fraction is the share of frames with a settled answer, in [0, 1].
func (r *Report) Fraction() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.WithAnswer) / float64(r.Total)
}

// Compute tallies the stored records for the given frame indices. The
// strategy decides what counts as answered. Frames without a stored record
// count as missing, never as answered.
func Compute(ctx context.Context, store *frames.Store, strat strategy.Strategy, indices []int) (*Report, error) {
	if len(indices) == 0 {
		return nil, ErrNoFrames
	}

	report := &Report{Total: len(indices)}
	for _, index := range indices {
		record, err := store.Get(ctx, index)
		if err != nil {
			return nil, err
		}
		switch {
		case record == nil:
			report.Missing++
		case strat.HasAnswer(record):
			report.WithAnswer++
		case record.Status == frames.StatusFailed:
			report.Failed++
		default:
			report.Pending++
		}
	}
	return report, nil
}
