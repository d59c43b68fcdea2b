package prefetch

import "strings"

// Action selects what the prefetcher does with each frame.
type Action string

const (
	// ActionProcess submits frames for initial inference. Frames that were
	// already submitted in an earlier run are skipped unless forced.
	ActionProcess Action = "process"
	// ActionUpdate refreshes pending records against the remote service.
	ActionUpdate Action = "update"
)

// ParseAction normalizes a user-supplied action name.
func ParseAction(value string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(value))) {
	case ActionProcess:
		return ActionProcess, true
	case ActionUpdate:
		return ActionUpdate, true
	default:
		return "", false
	}
}

func (a Action) valid() bool {
	return a == ActionProcess || a == ActionUpdate
}
