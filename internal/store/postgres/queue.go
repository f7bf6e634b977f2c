package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taskplane/internal/store"

	"github.com/lib/pq"
)

// ClaimTimeout is how long a claimed entry stays invisible before it
// is redelivered to another consumer.
const ClaimTimeout = 5 * time.Minute

// Publish appends a command to the named queue. With a non-nil tx the
// insert joins the caller's transaction.
func (s *Store) Publish(ctx context.Context, tx store.DBTransaction, queue string, payload json.RawMessage) error {
	query := `
		INSERT INTO dispatch_queue (queue, payload)
		VALUES ($1, $2)
	`

	executor := s.getExecutor(tx)
	if _, err := executor.ExecContext(ctx, query, queue, payload); err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queue, err)
	}
	return nil
}

// DequeueBatch claims up to 'limit' visible entries atomically using
// SELECT ... FOR UPDATE SKIP LOCKED. Returns nil slice if the queue is
// empty.
func (s *Store) DequeueBatch(ctx context.Context, queue string, limit int) ([]store.QueueItem, error) {
	if limit <= 0 {
		limit = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	selectQuery := `
		SELECT id, payload
		FROM dispatch_queue
		WHERE queue = $1 AND visible_after <= NOW()
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT $2
	`

	rows, err := tx.QueryContext(ctx, selectQuery, queue, limit)
	if err != nil {
		return nil, fmt.Errorf("batch dequeue query failed: %w", err)
	}
	defer rows.Close()

	var items []store.QueueItem
	var ids []int64

	for rows.Next() {
		item := store.QueueItem{Queue: queue}
		if err := rows.Scan(&item.ID, &item.Payload); err != nil {
			return nil, fmt.Errorf("batch dequeue scan failed: %w", err)
		}
		items = append(items, item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("batch dequeue rows error: %w", err)
	}

	// Empty queue
	if len(items) == 0 {
		return nil, nil
	}

	// Hide claimed entries until the claim timeout expires.
	_, err = tx.ExecContext(ctx, `
		UPDATE dispatch_queue
		SET visible_after = NOW() + ($1 * INTERVAL '1 second')
		WHERE id = ANY($2)
	`, ClaimTimeout.Seconds(), pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("batch visibility update failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return items, nil
}

// Ack deletes handled entries.
func (s *Store) Ack(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := s.db.ExecContext(ctx, "DELETE FROM dispatch_queue WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to ack queue entries: %w", err)
	}
	return nil
}

// Count tracks the number of entries across all queues.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dispatch_queue").Scan(&count)
	return count, err
}
