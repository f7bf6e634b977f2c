// Package coordinator implements the task coordination core: it hands
// newly submitted tasks from the record store to the dispatch queue,
// issues kill commands against running tasks, and reconciles recorded
// agent assignments against the requested task set.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskplane/internal/idgen"
	"taskplane/internal/store"
	"taskplane/pkg/api"

	"github.com/google/uuid"
)

// ErrTaskNotFound is returned by Kill when no task exists for the
// tenant and id.
var ErrTaskNotFound = errors.New("task not found")

// ErrReconcileMismatch is returned when the store yields a task whose
// id was not part of the reconcile request. The whole call aborts.
var ErrReconcileMismatch = errors.New("task id not matched with requested set")

// Store combines the store and queue operations the coordinator needs.
type Store interface {
	BeginTx(ctx context.Context) (store.Tx, error)
	store.TaskStore
	store.Queue
}

// Coordinator mediates between the task record store and the dispatch
// queue. It holds no state of its own; atomicity is delegated to the
// store's transactions.
type Coordinator struct {
	store Store
	ids   *idgen.Generator
	log   *slog.Logger
}

// New creates a Coordinator.
func New(s Store, ids *idgen.Generator, log *slog.Logger) *Coordinator {
	return &Coordinator{store: s, ids: ids, log: log}
}

// deriveRunMode selects CONTAINER when a docker image is present,
// COMMAND otherwise.
func deriveRunMode(req api.SubmitTaskRequest) store.RunMode {
	if req.DockerImage != "" {
		return store.RunModeContainer
	}
	return store.RunModeCommand
}

// Submit records a new PENDING task and announces it on the task
// queue. The row is committed before the publish is attempted, so a
// dispatch command never exists without its task row. A publish
// failure after commit is logged and the task id is still returned;
// such tasks stay PENDING until an external sweep picks them up.
func (c *Coordinator) Submit(ctx context.Context, tenantID uuid.UUID, req api.SubmitTaskRequest) (int64, error) {
	runMode := deriveRunMode(req)
	taskID := c.ids.Next()

	task := &store.Task{
		TaskID:      taskID,
		TenantID:    tenantID,
		TaskName:    req.TaskName,
		RunMode:     runMode,
		TaskStatus:  store.StatusPending,
		CallbackURL: req.CallbackURL,
		CreatedAt:   time.Now().UTC(),
	}
	if runMode == store.RunModeContainer {
		task.DockerImage = req.DockerImage
	} else {
		task.Commands = req.Commands
	}

	tx, err := c.store.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := c.store.InsertTask(ctx, tx, task)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit task %d: %w", taskID, err)
	}

	if !inserted {
		// Snowflake ids should never collide; a conflict means the row
		// already exists and was dispatched by whoever inserted it.
		c.log.Warn("task id already present, skipping dispatch", "task_id", taskID)
		return taskID, nil
	}

	payload, err := json.Marshal(api.DispatchTask{
		TaskID:      taskID,
		TenantID:    tenantID.String(),
		TaskName:    task.TaskName,
		RunMode:     string(runMode),
		Commands:    task.Commands,
		DockerImage: task.DockerImage,
		CallbackURL: task.CallbackURL,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal dispatch command: %w", err)
	}

	// The row is already committed; a lost announcement leaves the
	// task PENDING but is not an error for the submitter.
	if err := c.store.Publish(ctx, nil, store.QueueTasks, payload); err != nil {
		c.log.Error("task committed but dispatch publish failed", "task_id", taskID, "error", err)
	}

	return taskID, nil
}

// Kill asks the assigned agent to terminate a task. Killing a task
// that already finished is a defined negative outcome, not an error:
// the result carries the existing status and message. The record store
// is not updated here; the consuming agent reports the terminal status
// back.
func (c *Coordinator) Kill(ctx context.Context, tenantID uuid.UUID, taskID int64) (*api.KillTaskResponse, error) {
	task, err := c.store.GetTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %d", ErrTaskNotFound, taskID)
	}

	if task.TaskStatus.Terminal() {
		return &api.KillTaskResponse{
			Accepted: false,
			Status:   task.TaskStatus.String(),
			Message:  task.Message,
		}, nil
	}

	envelope := api.TaskManagement{
		Action: api.ActionKill,
		TaskAgentRels: []api.TaskAgentRel{
			{TaskID: task.TaskID, TaskName: task.TaskName, AgentID: task.AgentID},
		},
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal kill command: %w", err)
	}
	if err := c.store.Publish(ctx, nil, store.QueueManagement, payload); err != nil {
		return nil, err
	}

	c.log.Info("kill command published", "task_id", taskID, "agent_id", task.AgentID)
	return &api.KillTaskResponse{
		Accepted: true,
		Status:   task.TaskStatus.String(),
		Message:  "taskplane accepted kill task command",
	}, nil
}

// Query is a pure read-through: it returns whatever subset of the
// requested ids exists for the tenant.
func (c *Coordinator) Query(ctx context.Context, tenantID uuid.UUID, taskIDs []int64) ([]store.Task, error) {
	return c.store.GetTasks(ctx, tenantID, taskIDs)
}
