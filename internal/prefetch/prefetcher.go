package prefetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"framewise/internal/frames"
	"framewise/internal/logging"
	"framewise/internal/services"
	"framewise/internal/strategy"
)

const (
	// DefaultWorkers is the worker pool size when none is configured.
	DefaultWorkers = 8
	// DefaultWindow is the number of frames dispatched ahead of the one a
	// consumer is waiting on.
	DefaultWindow = 8
)

var (
	// ErrUnknownIndex marks a Get for a frame index that is not part of the
	// run's ordering.
	ErrUnknownIndex = errors.New("unknown frame index")
	// ErrClosed marks a Get against a prefetcher that has been closed.
	ErrClosed = errors.New("prefetcher closed")
)

// promise is the one-shot completion slot for a dispatched frame. record and
// err are written exactly once before done is closed.
type promise struct {
	done   chan struct{}
	record *frames.Record
	err    error
}

// Prefetcher runs a frame action across a fixed worker pool and hands results
// to a sequential consumer through Get.
type Prefetcher struct {
	strategy  strategy.Strategy
	store     *frames.Store
	logger    *slog.Logger
	framesDir string
	action    Action
	force     bool
	workers   int
	window    int

	indices  []int
	position map[int]int

	ctx    context.Context
	cancel context.CancelFunc
	tasks  chan int
	wg     sync.WaitGroup

	initOnce sync.Once
	initErr  error

	mu      sync.Mutex
	pending map[int]*promise
	closed  bool

	closeOnce sync.Once
	stopped   chan struct{}
}

// Option customizes a Prefetcher.
type Option func(*Prefetcher)

// WithWorkers sets the worker pool size.
func WithWorkers(workers int) Option {
	return func(p *Prefetcher) {
		p.workers = workers
	}
}

// WithWindow sets the look-ahead window.
func WithWindow(window int) Option {
	return func(p *Prefetcher) {
		p.window = window
	}
}

// WithForce resubmits frames even when an earlier run already submitted them.
func WithForce(force bool) Option {
	return func(p *Prefetcher) {
		p.force = force
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prefetcher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPrefetcher validates the run configuration and starts the worker pool.
// An empty index list is valid; every Get against it reports ErrUnknownIndex.
// The caller must Close the prefetcher when done.
func NewPrefetcher(strat strategy.Strategy, store *frames.Store, framesDir string, action Action, indices []int, opts ...Option) (*Prefetcher, error) {
	if strat == nil {
		return nil, services.Wrap(services.ErrConfiguration, "prefetch", "new", "strategy is required", nil)
	}
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "prefetch", "new", "store is required", nil)
	}
	if !action.valid() {
		return nil, services.Wrap(services.ErrConfiguration, "prefetch", "new", fmt.Sprintf("unknown action %q", string(action)), nil)
	}

	position := make(map[int]int, len(indices))
	ordered := make([]int, len(indices))
	for i, index := range indices {
		if index < 0 {
			return nil, services.Wrap(services.ErrValidation, "prefetch", "new", fmt.Sprintf("negative frame index %d", index), nil)
		}
		if _, seen := position[index]; seen {
			return nil, services.Wrap(services.ErrValidation, "prefetch", "new", fmt.Sprintf("duplicate frame index %d", index), nil)
		}
		position[index] = i
		ordered[i] = index
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Prefetcher{
		strategy:  strat,
		store:     store,
		logger:    logging.NewNop(),
		framesDir: framesDir,
		action:    action,
		workers:   DefaultWorkers,
		window:    DefaultWindow,
		indices:   ordered,
		position:  position,
		ctx:       ctx,
		cancel:    cancel,
		tasks:     make(chan int, len(ordered)),
		pending:   make(map[int]*promise, len(ordered)),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers <= 0 || p.window <= 0 {
		cancel()
		return nil, services.Wrap(services.ErrConfiguration, "prefetch", "new",
			fmt.Sprintf("workers (%d) and window (%d) must be positive", p.workers, p.window), nil)
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p, nil
}

// Indices returns the run's frame ordering.
func (p *Prefetcher) Indices() []int {
	out := make([]int, len(p.indices))
	copy(out, p.indices)
	return out
}

// Get blocks until the record for the given frame index is ready. Requesting
// an index also dispatches the frames inside the look-ahead window, so a
// consumer walking the ordering keeps the pool saturated. A frame whose work
// failed comes back as a record in the failed status, not as an error.
func (p *Prefetcher) Get(ctx context.Context, index int) (*frames.Record, error) {
	pos, ok := p.position[index]
	if !ok {
		return nil, fmt.Errorf("%w: frame %d is not part of this run", ErrUnknownIndex, index)
	}

	p.dispatchFrom(pos)

	p.mu.Lock()
	pr := p.pending[index]
	p.mu.Unlock()
	if pr == nil {
		return nil, ErrClosed
	}

	select {
	case <-pr.done:
		return pr.record, pr.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.stopped:
		select {
		case <-pr.done:
			return pr.record, pr.err
		default:
			return nil, ErrClosed
		}
	}
}

// Close stops the worker pool and waits for in-flight frames to finish.
func (p *Prefetcher) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		p.cancel()
		close(p.tasks)
		p.wg.Wait()
		close(p.stopped)
	})
	return nil
}

// dispatchFrom enqueues every not-yet-dispatched frame from the given
// position through the end of the look-ahead window. The task channel is
// sized for the whole run and each index is enqueued at most once, so the
// send never blocks while the lock is held.
func (p *Prefetcher) dispatchFrom(pos int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	end := pos + p.window
	if end > len(p.indices)-1 {
		end = len(p.indices) - 1
	}
	for i := pos; i <= end; i++ {
		index := p.indices[i]
		if _, dispatched := p.pending[index]; dispatched {
			continue
		}
		p.pending[index] = &promise{done: make(chan struct{})}
		p.tasks <- index
	}
}

func (p *Prefetcher) worker() {
	defer p.wg.Done()
	for index := range p.tasks {
		record, err := p.handle(p.ctx, index)
		p.fulfill(index, record, err)
	}
}

func (p *Prefetcher) fulfill(index int, record *frames.Record, err error) {
	p.mu.Lock()
	pr := p.pending[index]
	p.mu.Unlock()
	pr.record = record
	pr.err = err
	close(pr.done)
}

func (p *Prefetcher) handle(ctx context.Context, index int) (*frames.Record, error) {
	p.initOnce.Do(func() {
		p.initErr = p.strategy.Initialize(ctx)
	})
	if p.initErr != nil {
		return nil, p.initErr
	}

	ctx = services.WithAction(ctx, string(p.action))
	ctx = services.WithFrameIndex(ctx, index)

	existing, err := p.store.Get(ctx, index)
	if err != nil {
		return nil, err
	}

	switch p.action {
	case ActionProcess:
		return p.processFrame(ctx, index, existing)
	default:
		return p.updateFrame(ctx, index, existing)
	}
}

func (p *Prefetcher) processFrame(ctx context.Context, index int, existing *frames.Record) (*frames.Record, error) {
	if existing != nil && existing.Submitted() && !p.force {
		p.logger.Debug("frame already submitted, skipping", "index", index, "query_id", existing.QueryID)
		return existing, nil
	}

	imagePath := frames.FramePath(p.framesDir, index)
	if existing != nil && existing.SourcePath != "" {
		imagePath = existing.SourcePath
	}

	record, err := p.strategy.ProcessFrame(ctx, index, imagePath)
	if err != nil {
		return p.recordFailure(ctx, index, existing, imagePath, err)
	}
	if err := p.store.Save(ctx, record); err != nil {
		return nil, err
	}
	p.logger.Debug("frame processed", "index", index, "status", record.Status)
	return record, nil
}

func (p *Prefetcher) updateFrame(ctx context.Context, index int, existing *frames.Record) (*frames.Record, error) {
	if existing == nil {
		return nil, services.Wrap(services.ErrValidation, "prefetch", "update",
			fmt.Sprintf("frame %d was never processed", index), nil)
	}
	if existing.HasAnswer() {
		return existing, nil
	}
	if !existing.Submitted() {
		// Nothing to refresh; a later process pass has to submit it first.
		p.logger.Debug("frame has no remote query, skipping update", "index", index, "status", existing.Status)
		return existing, nil
	}

	record, err := p.strategy.UpdateFrame(ctx, existing)
	if err != nil {
		return p.recordFailure(ctx, index, existing, existing.SourcePath, err)
	}
	if err := p.store.Save(ctx, record); err != nil {
		return nil, err
	}
	p.logger.Debug("frame updated", "index", index, "status", record.Status)
	return record, nil
}

// recordFailure turns a recoverable per-frame error into a failed record so
// one bad frame never stops the pool. Configuration and validation errors
// still surface to the caller.
func (p *Prefetcher) recordFailure(ctx context.Context, index int, existing *frames.Record, imagePath string, cause error) (*frames.Record, error) {
	if !services.IsRecoverable(cause) {
		return nil, cause
	}
	record := existing
	if record == nil {
		record = frames.NewRecord(index, imagePath)
	}
	record.SetFailed(cause.Error())
	if err := p.store.Save(ctx, record); err != nil {
		return nil, err
	}
	p.logger.Warn("frame failed", "index", index, "action", string(p.action), "error", cause)
	return record, nil
}
