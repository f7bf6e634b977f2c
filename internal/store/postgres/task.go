package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskplane/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const taskColumns = `task_id, tenant_id, task_name, run_mode, commands, docker_image, task_status, agent_id, message, callback_url, created_at, finished_at`

// InsertTask inserts a new task row. A conflicting task id is reported
// as inserted=false, not as an error.
func (s *Store) InsertTask(ctx context.Context, tx store.DBTransaction, task *store.Task) (bool, error) {
	query := `
		INSERT INTO tasks (task_id, tenant_id, task_name, run_mode, commands, docker_image, task_status, agent_id, message, callback_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (task_id) DO NOTHING
	`

	executor := s.getExecutor(tx)
	res, err := executor.ExecContext(ctx, query,
		task.TaskID,
		task.TenantID,
		task.TaskName,
		string(task.RunMode),
		task.Commands,
		task.DockerImage,
		int(task.TaskStatus),
		task.AgentID,
		task.Message,
		task.CallbackURL,
		task.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert task %d: %w", task.TaskID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// GetTask returns the task for (tenant, taskID), or nil when no such
// row exists for the tenant.
func (s *Store) GetTask(ctx context.Context, tenantID uuid.UUID, taskID int64) (*store.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE tenant_id = $1 AND task_id = $2", taskColumns)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, tenantID, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

// GetTasks returns the subset of the requested ids that exist for the
// tenant.
func (s *Store) GetTasks(ctx context.Context, tenantID uuid.UUID, taskIDs []int64) ([]store.Task, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM tasks WHERE tenant_id = $1 AND task_id = ANY($2)", taskColumns)

	rows, err := s.db.QueryContext(ctx, query, tenantID, pq.Array(taskIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []store.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// FinishTask moves a task to a terminal status. The status guard keeps
// finished tasks closed: a row whose status is already past RUNNING is
// left untouched.
func (s *Store) FinishTask(ctx context.Context, taskID int64, status store.TaskStatus, message string) error {
	query := `
		UPDATE tasks
		SET task_status = $1, message = $2, finished_at = NOW()
		WHERE task_id = $3 AND task_status <= $4
	`

	_, err := s.db.ExecContext(ctx, query, int(status), message, taskID, int(store.StatusRunning))
	if err != nil {
		return fmt.Errorf("failed to finish task %d: %w", taskID, err)
	}
	return nil
}

// AssignTask marks a task RUNNING under the given agent, guarded the
// same way as FinishTask.
func (s *Store) AssignTask(ctx context.Context, taskID int64, agentID string) error {
	query := `
		UPDATE tasks
		SET task_status = $1, agent_id = $2
		WHERE task_id = $3 AND task_status <= $1
	`

	_, err := s.db.ExecContext(ctx, query, int(store.StatusRunning), agentID, taskID)
	if err != nil {
		return fmt.Errorf("failed to assign task %d: %w", taskID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*store.Task, error) {
	var (
		task    store.Task
		runMode string
		status  int
	)
	err := row.Scan(
		&task.TaskID,
		&task.TenantID,
		&task.TaskName,
		&runMode,
		&task.Commands,
		&task.DockerImage,
		&status,
		&task.AgentID,
		&task.Message,
		&task.CallbackURL,
		&task.CreatedAt,
		&task.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	task.RunMode = store.RunMode(runMode)
	task.TaskStatus = store.TaskStatus(status)
	return &task, nil
}
