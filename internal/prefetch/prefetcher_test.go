package prefetch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"framewise/internal/frames"
	"framewise/internal/prefetch"
	"framewise/internal/services"
	"framewise/internal/testsupport"
)

// stubStrategy answers every frame after an optional per-index delay and
// counts concurrent and total invocations.
type stubStrategy struct {
	mu          sync.Mutex
	processed   map[int]int
	updated     map[int]int
	inFlight    int
	maxInFlight int

	delay       func(index int) time.Duration
	failProcess map[int]error
	initErr     error
	blockUntil  chan struct{}
}

func newStubStrategy() *stubStrategy {
	return &stubStrategy{
		processed: make(map[int]int),
		updated:   make(map[int]int),
	}
}

func (s *stubStrategy) Initialize(context.Context) error {
	return s.initErr
}

func (s *stubStrategy) enter(index int) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()
	if s.blockUntil != nil {
		<-s.blockUntil
	}
	if s.delay != nil {
		time.Sleep(s.delay(index))
	}
}

func (s *stubStrategy) exit() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *stubStrategy) ProcessFrame(_ context.Context, index int, imagePath string) (*frames.Record, error) {
	s.enter(index)
	defer s.exit()

	s.mu.Lock()
	s.processed[index]++
	failure := s.failProcess[index]
	s.mu.Unlock()
	if failure != nil {
		return nil, failure
	}

	record := frames.NewRecord(index, imagePath)
	record.QueryID = fmt.Sprintf("iq-%d", index)
	record.SetAnswer(index%2 == 0, "YES", 0.95)
	return record, nil
}

func (s *stubStrategy) UpdateFrame(_ context.Context, record *frames.Record) (*frames.Record, error) {
	s.enter(record.Index)
	defer s.exit()

	s.mu.Lock()
	s.updated[record.Index]++
	s.mu.Unlock()

	record.SetAnswer(true, "YES", 0.97)
	return record, nil
}

func (s *stubStrategy) HasAnswer(record *frames.Record) bool {
	return record.HasAnswer()
}

func (s *stubStrategy) processedCount(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed[index]
}

func sequence(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func newTestPrefetcher(t *testing.T, strat *stubStrategy, action prefetch.Action, indices []int, opts ...prefetch.Option) (*prefetch.Prefetcher, *frames.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	pf, err := prefetch.NewPrefetcher(strat, store, cfg.Paths.FramesDir, action, indices, opts...)
	if err != nil {
		t.Fatalf("NewPrefetcher: %v", err)
	}
	t.Cleanup(func() { pf.Close() })
	return pf, store
}

func TestProcessAnswersEveryFrameOnce(t *testing.T) {
	strat := newStubStrategy()
	pf, store := newTestPrefetcher(t, strat, prefetch.ActionProcess, sequence(20))

	ctx := context.Background()
	for index := 0; index < 20; index++ {
		record, err := pf.Get(ctx, index)
		if err != nil {
			t.Fatalf("Get(%d): %v", index, err)
		}
		if record.Index != index {
			t.Fatalf("Get(%d) returned record for %d", index, record.Index)
		}
		if !record.HasAnswer() {
			t.Fatalf("frame %d not answered: %#v", index, record)
		}
	}

	for index := 0; index < 20; index++ {
		if got := strat.processedCount(index); got != 1 {
			t.Errorf("frame %d processed %d times, want 1", index, got)
		}
		record, err := store.Get(ctx, index)
		if err != nil || record == nil {
			t.Fatalf("store.Get(%d): %v %v", index, record, err)
		}
		if record.Status != frames.StatusAnswered {
			t.Errorf("frame %d persisted as %s", index, record.Status)
		}
	}
}

func TestConcurrentGetsDispatchEachIndexOnce(t *testing.T) {
	strat := newStubStrategy()
	strat.delay = func(int) time.Duration { return 5 * time.Millisecond }
	pf, _ := newTestPrefetcher(t, strat, prefetch.ActionProcess, sequence(8), prefetch.WithWindow(1))

	var wg sync.WaitGroup
	var failures atomic.Int64
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := 0; index < 8; index++ {
				if _, err := pf.Get(context.Background(), index); err != nil {
					failures.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d gets failed", failures.Load())
	}
	for index := 0; index < 8; index++ {
		if got := strat.processedCount(index); got != 1 {
			t.Errorf("frame %d processed %d times, want 1", index, got)
		}
	}
}

func TestWorkerPoolIsBounded(t *testing.T) {
	strat := newStubStrategy()
	strat.delay = func(int) time.Duration { return 10 * time.Millisecond }
	pf, _ := newTestPrefetcher(t, strat, prefetch.ActionProcess, sequence(30),
		prefetch.WithWorkers(4), prefetch.WithWindow(30))

	for index := 0; index < 30; index++ {
		if _, err := pf.Get(context.Background(), index); err != nil {
			t.Fatalf("Get(%d): %v", index, err)
		}
	}

	strat.mu.Lock()
	max := strat.maxInFlight
	strat.mu.Unlock()
	if max > 4 {
		t.Fatalf("observed %d concurrent frames, pool size is 4", max)
	}
}

func TestOutOfOrderRequestsReturnMatchingRecords(t *testing.T) {
	strat := newStubStrategy()
	strat.delay = func(index int) time.Duration {
		// Frame 1 is the slowest, so completion order differs from the
		// consumption order.
		if index == 1 {
			return 40 * time.Millisecond
		}
		return 2 * time.Millisecond
	}
	pf, _ := newTestPrefetcher(t, strat, prefetch.ActionProcess, []int{3, 1, 2})

	for _, index := range []int{3, 1, 2} {
		record, err := pf.Get(context.Background(), index)
		if err != nil {
			t.Fatalf("Get(%d): %v", index, err)
		}
		if record.Index != index {
			t.Fatalf("Get(%d) returned record for %d", index, record.Index)
		}
	}
}

func TestFailedFrameDoesNotStopThePool(t *testing.T) {
	strat := newStubStrategy()
	strat.failProcess = map[int]error{
		7: services.Wrap(services.ErrTransient, "strategy", "submit", "remote unavailable", nil),
	}
	pf, store := newTestPrefetcher(t, strat, prefetch.ActionProcess, sequence(10))

	ctx := context.Background()
	for index := 0; index < 10; index++ {
		record, err := pf.Get(ctx, index)
		if err != nil {
			t.Fatalf("Get(%d): %v", index, err)
		}
		if index == 7 {
			if record.Status != frames.StatusFailed {
				t.Fatalf("frame 7 status %s, want failed", record.Status)
			}
			if record.ErrorMessage == "" {
				t.Fatal("frame 7 failure not recorded")
			}
			continue
		}
		if !record.HasAnswer() {
			t.Fatalf("frame %d not answered", index)
		}
	}

	persisted, err := store.Get(ctx, 7)
	if err != nil {
		t.Fatalf("store.Get(7): %v", err)
	}
	if persisted.Status != frames.StatusFailed {
		t.Fatalf("frame 7 persisted as %s", persisted.Status)
	}
}

func TestProcessSkipsAlreadySubmittedFrames(t *testing.T) {
	strat := newStubStrategy()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for index := 0; index < 50; index++ {
		record := frames.NewRecord(index, frames.FramePath(cfg.Paths.FramesDir, index))
		record.QueryID = fmt.Sprintf("iq-old-%d", index)
		record.SetPending("UNCLEAR", 0.5)
		testsupport.MustSave(t, store, record)
	}

	pf, err := prefetch.NewPrefetcher(strat, store, cfg.Paths.FramesDir, prefetch.ActionProcess, sequence(100))
	if err != nil {
		t.Fatalf("NewPrefetcher: %v", err)
	}
	defer pf.Close()

	for index := 0; index < 100; index++ {
		record, err := pf.Get(ctx, index)
		if err != nil {
			t.Fatalf("Get(%d): %v", index, err)
		}
		if index < 50 {
			if record.QueryID != fmt.Sprintf("iq-old-%d", index) {
				t.Fatalf("frame %d resubmitted: %q", index, record.QueryID)
			}
		} else if !record.HasAnswer() {
			t.Fatalf("frame %d not processed", index)
		}
	}

	for index := 0; index < 50; index++ {
		if got := strat.processedCount(index); got != 0 {
			t.Errorf("submitted frame %d reprocessed %d times", index, got)
		}
	}
	for index := 50; index < 100; index++ {
		if got := strat.processedCount(index); got != 1 {
			t.Errorf("frame %d processed %d times, want 1", index, got)
		}
	}
}

func TestForceResubmitsSubmittedFrames(t *testing.T) {
	strat := newStubStrategy()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	record := frames.NewRecord(0, frames.FramePath(cfg.Paths.FramesDir, 0))
	record.QueryID = "iq-old-0"
	record.SetPending("UNCLEAR", 0.5)
	testsupport.MustSave(t, store, record)

	pf, err := prefetch.NewPrefetcher(strat, store, cfg.Paths.FramesDir, prefetch.ActionProcess, []int{0},
		prefetch.WithForce(true))
	if err != nil {
		t.Fatalf("NewPrefetcher: %v", err)
	}
	defer pf.Close()

	got, err := pf.Get(context.Background(), 0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if got.QueryID != "iq-0" {
		t.Fatalf("expected fresh submission, got query %q", got.QueryID)
	}
	if strat.processedCount(0) != 1 {
		t.Fatalf("frame 0 processed %d times, want 1", strat.processedCount(0))
	}
}

func TestUpdateRefreshesPendingAndSkipsAnswered(t *testing.T) {
	strat := newStubStrategy()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	pending := frames.NewRecord(0, frames.FramePath(cfg.Paths.FramesDir, 0))
	pending.QueryID = "iq-0"
	pending.SetPending("UNCLEAR", 0.5)
	testsupport.MustSave(t, store, pending)

	answered := frames.NewRecord(1, frames.FramePath(cfg.Paths.FramesDir, 1))
	answered.QueryID = "iq-1"
	answered.SetAnswer(true, "YES", 0.99)
	testsupport.MustSave(t, store, answered)

	pf, err := prefetch.NewPrefetcher(strat, store, cfg.Paths.FramesDir, prefetch.ActionUpdate, []int{0, 1})
	if err != nil {
		t.Fatalf("NewPrefetcher: %v", err)
	}
	defer pf.Close()

	ctx := context.Background()
	refreshed, err := pf.Get(ctx, 0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if !refreshed.HasAnswer() {
		t.Fatalf("pending frame not refreshed: %#v", refreshed)
	}

	untouched, err := pf.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if !untouched.HasAnswer() {
		t.Fatalf("answered frame lost its answer: %#v", untouched)
	}
	strat.mu.Lock()
	defer strat.mu.Unlock()
	if strat.updated[1] != 0 {
		t.Fatalf("answered frame updated %d times, want 0", strat.updated[1])
	}
	if strat.updated[0] != 1 {
		t.Fatalf("pending frame updated %d times, want 1", strat.updated[0])
	}
}

func TestGetRejectsUnknownIndex(t *testing.T) {
	pf, _ := newTestPrefetcher(t, newStubStrategy(), prefetch.ActionProcess, sequence(3))

	_, err := pf.Get(context.Background(), 42)
	if !errors.Is(err, prefetch.ErrUnknownIndex) {
		t.Fatalf("expected ErrUnknownIndex, got %v", err)
	}
}

func TestEmptyRunIsValid(t *testing.T) {
	pf, _ := newTestPrefetcher(t, newStubStrategy(), prefetch.ActionProcess, nil)

	if _, err := pf.Get(context.Background(), 0); !errors.Is(err, prefetch.ErrUnknownIndex) {
		t.Fatalf("expected ErrUnknownIndex, got %v", err)
	}
	if err := pf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	strat := newStubStrategy()

	cases := []struct {
		name    string
		action  prefetch.Action
		indices []int
		opts    []prefetch.Option
		marker  error
	}{
		{"unknown action", prefetch.Action("replay"), sequence(3), nil, services.ErrConfiguration},
		{"duplicate index", prefetch.ActionProcess, []int{1, 2, 1}, nil, services.ErrValidation},
		{"negative index", prefetch.ActionProcess, []int{-1}, nil, services.ErrValidation},
		{"zero workers", prefetch.ActionProcess, sequence(3), []prefetch.Option{prefetch.WithWorkers(0)}, services.ErrConfiguration},
		{"zero window", prefetch.ActionProcess, sequence(3), []prefetch.Option{prefetch.WithWindow(0)}, services.ErrConfiguration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := prefetch.NewPrefetcher(strat, store, cfg.Paths.FramesDir, tc.action, tc.indices, tc.opts...)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestGetHonorsContextCancellation(t *testing.T) {
	strat := newStubStrategy()
	strat.blockUntil = make(chan struct{})
	pf, _ := newTestPrefetcher(t, strat, prefetch.ActionProcess, sequence(1))
	defer close(strat.blockUntil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := pf.Get(ctx, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestInitializeFailureSurfacesOnGet(t *testing.T) {
	strat := newStubStrategy()
	strat.initErr = services.Wrap(services.ErrConfiguration, "strategy", "detector", "detector name is empty", nil)
	pf, _ := newTestPrefetcher(t, strat, prefetch.ActionProcess, sequence(2))

	_, err := pf.Get(context.Background(), 0)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestActionParsing(t *testing.T) {
	if action, ok := prefetch.ParseAction(" Process "); !ok || action != prefetch.ActionProcess {
		t.Fatalf("ParseAction(process) = %v %v", action, ok)
	}
	if action, ok := prefetch.ParseAction("update"); !ok || action != prefetch.ActionUpdate {
		t.Fatalf("ParseAction(update) = %v %v", action, ok)
	}
	if _, ok := prefetch.ParseAction("replay"); ok {
		t.Fatal("ParseAction(replay) must fail")
	}
}
