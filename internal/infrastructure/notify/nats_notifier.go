package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nats-io/nats.go"

	"auditflow/internal/errs"
	"auditflow/internal/ports"
)

const subjectPrefix = "auditflow.lifecycle."

// NATSNotifier publishes lifecycle events as JSON on
// auditflow.lifecycle.<kind>. Delivery is fire-and-forget; the reporting
// mirror consumes these, the core never waits for it.
type NATSNotifier struct {
	conn *nats.Conn
}

var _ ports.Notifier = (*NATSNotifier)(nil)

func NewNATSNotifier(url string) (*NATSNotifier, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}

	conn, err := nats.Connect(url, nats.Name("auditflow"))
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}
	return &NATSNotifier{conn: conn}, nil
}

func (n *NATSNotifier) Publish(ctx context.Context, event ports.LifecycleEvent) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "marshal lifecycle event")
	}

	if err := n.conn.Publish(subjectPrefix+event.Kind, payload); err != nil {
		return errs.Wrap(err, "publish lifecycle event")
	}
	return nil
}

func (n *NATSNotifier) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
	}
}
