package strategy

import (
	"context"

	"framewise/internal/frames"
)

// Strategy produces and refreshes frame records. Implementations must be safe
// for concurrent use; the prefetcher calls ProcessFrame and UpdateFrame from
// multiple workers.
type Strategy interface {
	// Initialize performs one-time setup before any frames are handled, such
	// as resolving remote resources. It is called once per run.
	Initialize(ctx context.Context) error

	// ProcessFrame performs the initial work for a frame and returns its
	// record. The returned record may still be pending.
	ProcessFrame(ctx context.Context, index int, imagePath string) (*frames.Record, error)

	// UpdateFrame refreshes a previously processed record. Records that
	// already hold an answer are returned unchanged.
	UpdateFrame(ctx context.Context, record *frames.Record) (*frames.Record, error)

	// HasAnswer reports whether a record holds a settled answer.
	HasAnswer(record *frames.Record) bool
}
