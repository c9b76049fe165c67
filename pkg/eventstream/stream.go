package eventstream

import (
	"context"

	"github.com/meridian/orchestrator/pkg/types"
)

// Stream is the append-only, per-consumer ordered log of model-change
// events. A fresh consumer_id starts at epoch zero and sees the full
// historical log, enabling cold-start reconciliation. Events may be
// redelivered until acknowledged; consumers must be idempotent.
type Stream interface {
	// Send appends one event and returns after durable commit.
	Send(ctx context.Context, event *types.Event) error

	// Receive returns up to maxN events with the given consumer's
	// earliest unacknowledged position first, in ascending
	// (timestamp, id) order.
	Receive(ctx context.Context, consumerID string, maxN int) ([]*types.Event, error)

	// Delete acknowledges event for consumerID, advancing its
	// bookmark past it.
	Delete(ctx context.Context, consumerID, eventID string) error
}
