package store

import (
	"context"
	"encoding/json"
)

// Logical dispatch destinations. Both live in the same queue table and
// are addressed by name.
const (
	QueueTasks      = "tasks"
	QueueManagement = "management"
)

// Queue defines the interface for the dispatch queue. Delivery is
// at-least-once: claimed entries become visible again unless acked
// before the claim timeout expires.
type Queue interface {
	// Publish appends a JSON command to the named queue. When tx is
	// non-nil the insert joins the caller's transaction; otherwise it
	// autocommits. Fire-and-forget: no delivery ack is observed.
	Publish(ctx context.Context, tx DBTransaction, queue string, payload json.RawMessage) error

	// DequeueBatch claims up to 'limit' visible entries atomically.
	// Implementations must use SELECT ... FOR UPDATE SKIP LOCKED
	// semantics. Returns a nil slice if the queue is empty.
	DequeueBatch(ctx context.Context, queue string, limit int) ([]QueueItem, error)

	// Ack deletes handled entries.
	Ack(ctx context.Context, ids []int64) error

	// Count tracks the number of entries across all queues.
	Count(ctx context.Context) (int64, error)
}

// QueueItem represents a claimed entry from the dispatch queue.
type QueueItem struct {
	ID      int64
	Queue   string
	Payload json.RawMessage
}
