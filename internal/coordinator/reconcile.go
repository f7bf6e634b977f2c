package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"taskplane/internal/store"
	"taskplane/pkg/api"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// reconcileConcurrency bounds the per-task fan-out. Evaluation is
// read-mostly; only the orphan-expiry path writes to the store.
const reconcileConcurrency = 8

// Reconcile verifies that the recorded agent assignment of every
// requested task still reflects reality and re-announces the live
// assignments on the management queue in one batched envelope.
//
// Per task: a non-RUNNING task is reported as not reconciled with no
// queue action; a RUNNING task with no agent is orphaned and forced to
// EXPIRED; a RUNNING task with an agent is re-announced. Ids the store
// has no row for keep their seeded "invalid taskId" entry. Results for
// distinct tasks are independent, so they are evaluated concurrently
// behind a join barrier; nothing is observable before all finish.
func (c *Coordinator) Reconcile(ctx context.Context, tenantID uuid.UUID, taskIDs []int64) (*api.ReconcileSummary, error) {
	tasks, err := c.store.GetTasks(ctx, tenantID, taskIDs)
	if err != nil {
		return nil, err
	}

	// Seed every requested id so ids without a row still get a detail
	// entry. The map is read-only during evaluation; each goroutine
	// mutates only its own task's entry.
	results := make(map[int64]*api.ReconcileDetail, len(taskIDs))
	for _, id := range taskIDs {
		results[id] = &api.ReconcileDetail{TaskID: id, Reconciled: false, Message: "invalid taskId"}
	}

	var (
		mu   sync.Mutex
		rels []api.TaskAgentRel
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			detail, ok := results[task.TaskID]
			if !ok {
				// The store returned an id outside the request; fail
				// the whole call rather than report partial results.
				c.log.Warn("reconcile returned unrequested task", "task_id", task.TaskID)
				return fmt.Errorf("%w: task %d", ErrReconcileMismatch, task.TaskID)
			}

			switch {
			case task.TaskStatus != store.StatusRunning:
				detail.Message = fmt.Sprintf("not reconcile due to terminal task status : %s", task.TaskStatus)

			case task.AgentID == "":
				// Orphaned: RUNNING with no live agent. The one case
				// where reconciliation mutates the store.
				if err := c.store.FinishTask(gctx, task.TaskID, store.StatusExpired, "task expired"); err != nil {
					return err
				}
				detail.Message = fmt.Sprintf("not reconcile due to terminal task status : %s", store.StatusExpired)

			default:
				mu.Lock()
				rels = append(rels, api.TaskAgentRel{
					TaskID:   task.TaskID,
					TaskName: task.TaskName,
					AgentID:  task.AgentID,
				})
				mu.Unlock()
				detail.Reconciled = true
				detail.Message = "reconcile task"
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// One batched announcement, never one message per task.
	if len(rels) > 0 {
		payload, err := json.Marshal(api.TaskManagement{Action: api.ActionReconcile, TaskAgentRels: rels})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reconcile command: %w", err)
		}
		if err := c.store.Publish(ctx, nil, store.QueueManagement, payload); err != nil {
			return nil, err
		}
	}

	summary := &api.ReconcileSummary{
		Requested:  len(taskIDs),
		Reconciled: len(rels),
		Details:    make([]api.ReconcileDetail, 0, len(taskIDs)),
	}
	for _, id := range taskIDs {
		summary.Details = append(summary.Details, *results[id])
	}
	return summary, nil
}
