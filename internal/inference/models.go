package inference

import "strings"

// Label is the categorical answer a detector produces for a frame.
type Label string

const (
	LabelYes     Label = "YES"
	LabelNo      Label = "NO"
	LabelUnclear Label = "UNCLEAR"
)

// ParseLabel normalizes a wire label value.
func ParseLabel(value string) Label {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "YES":
		return LabelYes
	case "NO":
		return LabelNo
	default:
		return LabelUnclear
	}
}

// Detector is a named yes/no question registered with the remote service.
type Detector struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Query               string  `json:"query"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}

// Result carries the current best answer for an image query. The service
// keeps refining results asynchronously (repredictions, human labels), so a
// result below the detector threshold is pending rather than final.
type Result struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ImageQuery is one submitted frame awaiting or holding an answer.
type ImageQuery struct {
	ID         string `json:"id"`
	DetectorID string `json:"detector_id"`
	Result     Result `json:"result"`
}

// Settled reports whether the query's result clears the threshold with a
// definite label. An unsettled query stays pending and should be refreshed on
// a later pass.
func (q *ImageQuery) Settled(threshold float64) bool {
	if q == nil {
		return false
	}
	return q.Result.Confidence >= threshold && q.Result.Label != LabelUnclear
}

type detectorRequest struct {
	Name                string  `json:"name"`
	Query               string  `json:"query"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}
