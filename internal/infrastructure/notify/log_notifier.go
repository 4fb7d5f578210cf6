package notify

import (
	"context"
	"log/slog"

	"auditflow/internal/bootstrap/logging"
	"auditflow/internal/ports"
)

// LogNotifier mirrors lifecycle events into the structured log. Default
// backend when no broker is configured.
type LogNotifier struct{}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Publish(ctx context.Context, event ports.LifecycleEvent) error {
	attrs := []slog.Attr{
		slog.String("component", "notify.log"),
		slog.String("event_id", event.EventID),
		slog.String("kind", event.Kind),
		slog.String("sample_ref", event.SampleRef),
		slog.String("actor", event.Actor),
		slog.String("at", event.At),
	}
	for key, value := range event.Detail {
		attrs = append(attrs, slog.String("detail_"+key, value))
	}

	logging.Info(ctx, "lifecycle event", attrs...)
	return nil
}
