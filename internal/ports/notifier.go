package ports

import "context"

// Lifecycle event kinds mirrored to the sync collaborator.
const (
	EventSampleCreated   = "sample.created"
	EventSampleAssigned  = "sample.assigned"
	EventSampleStarted   = "sample.started"
	EventSampleCompleted = "sample.completed"
	EventSampleSkipped   = "sample.skipped"
	EventSampleReset     = "sample.reset"
	EventSampleDeleted   = "sample.deleted"
)

type LifecycleEvent struct {
	EventID   string
	Kind      string
	SampleRef string
	Actor     string
	At        string
	Detail    map[string]string
}

// Notifier delivers lifecycle events best-effort. Publish errors are logged
// by the caller and never fail the transition that produced the event.
type Notifier interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}
