package audit

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a sample.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
)

// AllStatuses lists every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusAvailable, StatusAssigned, StatusInProgress, StatusCompleted, StatusSkipped}
}

var forwardTransitions = map[Status]map[Status]struct{}{
	StatusAvailable: {
		StatusAssigned: {},
	},
	StatusAssigned: {
		StatusInProgress: {},
		StatusSkipped:    {},
	},
	StatusInProgress: {
		StatusCompleted: {},
		StatusSkipped:   {},
	},
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	trimmed := strings.TrimSpace(raw)
	for _, status := range AllStatuses() {
		if string(status) == trimmed {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// CanTransition reports whether the forward edge from -> to exists.
// The admin reset edge is separate, see CanReset.
func CanTransition(from Status, to Status) bool {
	targets, ok := forwardTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// CanReset reports whether an admin reset to available is allowed.
// Completed audits are final; they are never returned to the pool.
func CanReset(from Status) bool {
	switch from {
	case StatusAssigned, StatusInProgress, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsActiveAssignment reports whether a sample in this status counts toward
// its assignee's workload.
func IsActiveAssignment(status Status) bool {
	return status == StatusAssigned || status == StatusInProgress
}

// RequiresAssignee reports whether the status implies a non-empty assignee.
// Skipped samples also retain the last assignee for attribution.
func RequiresAssignee(status Status) bool {
	switch status {
	case StatusAssigned, StatusInProgress, StatusCompleted, StatusSkipped:
		return true
	default:
		return false
	}
}
