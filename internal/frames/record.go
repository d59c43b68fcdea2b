package frames

import "time"

// Record is the persisted metadata unit for one video frame. The frame index
// is the durable key; everything else describes the state of the remote
// inference request issued for that frame.
type Record struct {
	Index  int
	Status Status
	// QueryID references the remote image query created when the frame was
	// submitted. Empty until the first successful submission.
	QueryID string
	// Label and Confidence mirror the most recent remote result, whether or
	// not it cleared the confidence threshold.
	Label      string
	Confidence float64
	// Answer is the settled answer for the frame. Nil while the remote service
	// is still predicting or waiting on a human label.
	Answer *bool
	// PayloadJSON carries strategy-defined metadata the core does not inspect.
	PayloadJSON  string
	ErrorMessage string
	// SourcePath points at the frame image on disk. The image is owned by the
	// extraction step, not by this record.
	SourcePath string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewRecord constructs an unprocessed record for a frame index.
func NewRecord(index int, sourcePath string) *Record {
	return &Record{
		Index:      index,
		Status:     StatusUnprocessed,
		SourcePath: sourcePath,
	}
}

// Submitted reports whether the frame has ever been sent to the remote
// service.
func (r *Record) Submitted() bool {
	return r != nil && r.QueryID != ""
}

// HasAnswer reports whether the frame has a settled answer.
func (r *Record) HasAnswer() bool {
	return r != nil && r.Answer != nil
}

// SetAnswer stores a settled answer and advances the status.
func (r *Record) SetAnswer(answer bool, label string, confidence float64) {
	value := answer
	r.Answer = &value
	r.Label = label
	r.Confidence = confidence
	r.Status = StatusAnswered
	r.ErrorMessage = ""
}

// SetPending records an unresolved remote result.
func (r *Record) SetPending(label string, confidence float64) {
	if r.Status == StatusAnswered {
		return
	}
	r.Label = label
	r.Confidence = confidence
	r.Status = StatusSubmitted
	r.ErrorMessage = ""
}

// SetFailed marks the record as failed with the given message. Answered
// records are left untouched; the answer already settled.
func (r *Record) SetFailed(message string) {
	if r.Status == StatusAnswered {
		return
	}
	r.Status = StatusFailed
	r.ErrorMessage = message
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Answer != nil {
		value := *r.Answer
		cp.Answer = &value
	}
	return &cp
}
