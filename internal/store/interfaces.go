package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx.
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// TenantStore handles tenant records and API key authentication.
type TenantStore interface {
	// CreateTenant inserts a new tenant to the database.
	CreateTenant(ctx context.Context, tenant *Tenant, hashedKey string) error

	// GetTenantByID returns a tenant by its ID.
	GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// GetTenantByAPIKeyHash returns a tenant by its API key hash.
	GetTenantByAPIKeyHash(ctx context.Context, hash string) (*Tenant, error)
}

// TaskStore handles persistence of task records.
type TaskStore interface {
	// InsertTask inserts a new task row with status PENDING. It
	// reports false without error when a row with the same task id
	// already exists.
	InsertTask(ctx context.Context, tx DBTransaction, task *Task) (bool, error)

	// GetTask returns the task for (tenant, taskID), or nil when
	// absent.
	GetTask(ctx context.Context, tenantID uuid.UUID, taskID int64) (*Task, error)

	// GetTasks returns the subset of the requested ids that exist for
	// the tenant. Missing ids are silently omitted.
	GetTasks(ctx context.Context, tenantID uuid.UUID, taskIDs []int64) ([]Task, error)

	// FinishTask moves a task to a terminal status with an explanatory
	// message. The update is conditional on the current status being
	// at most RUNNING, so a finished task is never reopened.
	FinishTask(ctx context.Context, taskID int64, status TaskStatus, message string) error

	// AssignTask marks a task RUNNING under the given agent. Like
	// FinishTask it never moves a terminal task backwards.
	AssignTask(ctx context.Context, taskID int64, agentID string) error
}
