package frames

import "strings"

// Status represents the lifecycle of a frame record.
//
// A record advances unprocessed -> submitted -> answered and never regresses
// out of answered. failed is a recoverable side state: a later process or
// update pass moves the record back through submitted.
type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusSubmitted   Status = "submitted"
	StatusAnswered    Status = "answered"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusUnprocessed,
	StatusSubmitted,
	StatusAnswered,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends the record's lifecycle for a pass.
func (s Status) IsTerminal() bool {
	return s == StatusAnswered
}

// CanTransition reports whether moving from one status to another preserves
// the monotonicity invariant.
func CanTransition(from, to Status) bool {
	if from == StatusAnswered {
		return to == StatusAnswered
	}
	_, ok := statusSet[to]
	return ok
}
