package strategy

import (
	"context"
	"sync"

	"framewise/internal/config"
	"framewise/internal/frames"
	"framewise/internal/inference"
	"framewise/internal/services"
)

// InferenceBackend is the slice of the inference client the detector strategy
// needs. *inference.Client satisfies it.
type InferenceBackend interface {
	GetOrCreateDetector(ctx context.Context, name, query string, threshold float64) (*inference.Detector, error)
	SubmitImage(ctx context.Context, detectorID, imagePath string) (*inference.ImageQuery, error)
	GetImageQuery(ctx context.Context, id string) (*inference.ImageQuery, error)
}

// DetectorStrategy answers one yes/no question per frame through the remote
// inference service. All frames in a run share a single detector, resolved
// lazily on first use.
type DetectorStrategy struct {
	backend   InferenceBackend
	name      string
	query     string
	threshold float64

	mu       sync.Mutex
	detector *inference.Detector
}

// NewDetectorStrategy builds a strategy that submits frames to the named
// detector, creating the detector with the given question when it does not
// exist yet.
func NewDetectorStrategy(backend InferenceBackend, name, query string, threshold float64) *DetectorStrategy {
	return &DetectorStrategy{
		backend:   backend,
		name:      name,
		query:     query,
		threshold: threshold,
	}
}

// NewDetectorStrategyFromConfig builds a detector strategy from application
// configuration.
func NewDetectorStrategyFromConfig(backend InferenceBackend, cfg *config.Config) *DetectorStrategy {
	return NewDetectorStrategy(
		backend,
		cfg.Inference.DetectorName,
		cfg.Inference.DetectorQuery,
		cfg.Inference.ConfidenceThreshold,
	)
}

// Initialize resolves the shared detector up front so the first frame does
// not pay the lookup cost inside a worker.
func (s *DetectorStrategy) Initialize(ctx context.Context) error {
	_, err := s.resolveDetector(ctx)
	return err
}

// ProcessFrame submits the frame image and returns a record carrying the
// remote query id. The answer is adopted immediately only when the result
// already clears the detector threshold.
func (s *DetectorStrategy) ProcessFrame(ctx context.Context, index int, imagePath string) (*frames.Record, error) {
	detector, err := s.resolveDetector(ctx)
	if err != nil {
		return nil, err
	}

	query, err := s.backend.SubmitImage(ctx, detector.ID, imagePath)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "strategy", "submit", "submit frame image", err)
	}

	record := frames.NewRecord(index, imagePath)
	record.QueryID = query.ID
	s.apply(record, query)
	return record, nil
}

// UpdateFrame re-fetches the remote query for a pending record. Answered
// records pass through untouched; a record that was never submitted cannot be
// updated.
func (s *DetectorStrategy) UpdateFrame(ctx context.Context, record *frames.Record) (*frames.Record, error) {
	if record == nil {
		return nil, services.Wrap(services.ErrValidation, "strategy", "update", "nil record", nil)
	}
	if record.HasAnswer() {
		return record, nil
	}
	if !record.Submitted() {
		return nil, services.Wrap(services.ErrValidation, "strategy", "update", "record was never submitted", nil)
	}

	query, err := s.backend.GetImageQuery(ctx, record.QueryID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "strategy", "update", "refresh image query", err)
	}
	s.apply(record, query)
	return record, nil
}

// HasAnswer reports whether the record holds a settled answer.
func (s *DetectorStrategy) HasAnswer(record *frames.Record) bool {
	return record.HasAnswer()
}

func (s *DetectorStrategy) apply(record *frames.Record, query *inference.ImageQuery) {
	if query.Settled(s.threshold) {
		record.SetAnswer(query.Result.Label == inference.LabelYes, string(query.Result.Label), query.Result.Confidence)
		return
	}
	record.SetPending(string(query.Result.Label), query.Result.Confidence)
}

func (s *DetectorStrategy) resolveDetector(ctx context.Context) (*inference.Detector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detector != nil {
		return s.detector, nil
	}
	if s.name == "" {
		return nil, services.Wrap(services.ErrConfiguration, "strategy", "detector", "detector name is empty", nil)
	}
	detector, err := s.backend.GetOrCreateDetector(ctx, s.name, s.query, s.threshold)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "strategy", "detector", "resolve detector", err)
	}
	s.detector = detector
	return detector, nil
}
