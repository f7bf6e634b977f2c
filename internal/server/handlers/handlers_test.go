package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"taskplane/internal/coordinator"
	"taskplane/internal/idgen"
	"taskplane/internal/store"

	"github.com/google/uuid"
)

// Mock transaction
type mockTx struct{}

func (m *mockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (m *mockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (m *mockTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (m *mockTx) Commit() error { return nil }

func (m *mockTx) Rollback() error { return nil }

// Mock Store
type mockStore struct {
	mu sync.Mutex

	// Transaction hooks
	beginTxErr error
	pingErr    error

	// Task hooks
	insertTaskErr   error
	insertTaskResp  bool
	getTaskResp     *store.Task
	getTaskErr      error
	getTasksResp    []store.Task
	getTasksErr     error
	finishTaskErr   error
	assignTaskErr   error
	capturedStatus  store.TaskStatus
	capturedAgentID string

	// Tenant hooks
	createTenantErr error

	// Queue hooks
	publishErr       error
	publishedQueues  []string
	dequeueBatchResp []store.QueueItem
	dequeueBatchErr  error
	ackErr           error
	capturedAckIDs   []int64
}

func (m *mockStore) BeginTx(ctx context.Context) (store.Tx, error) {
	if m.beginTxErr != nil {
		return nil, m.beginTxErr
	}
	return &mockTx{}, nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockStore) InsertTask(ctx context.Context, tx store.DBTransaction, task *store.Task) (bool, error) {
	return m.insertTaskResp, m.insertTaskErr
}

func (m *mockStore) GetTask(ctx context.Context, tenantID uuid.UUID, taskID int64) (*store.Task, error) {
	return m.getTaskResp, m.getTaskErr
}

func (m *mockStore) GetTasks(ctx context.Context, tenantID uuid.UUID, taskIDs []int64) ([]store.Task, error) {
	return m.getTasksResp, m.getTasksErr
}

func (m *mockStore) FinishTask(ctx context.Context, taskID int64, status store.TaskStatus, message string) error {
	m.capturedStatus = status
	return m.finishTaskErr
}

func (m *mockStore) AssignTask(ctx context.Context, taskID int64, agentID string) error {
	m.capturedAgentID = agentID
	return m.assignTaskErr
}

func (m *mockStore) CreateTenant(ctx context.Context, tenant *store.Tenant, hashedKey string) error {
	return m.createTenantErr
}

func (m *mockStore) GetTenantByID(ctx context.Context, id uuid.UUID) (*store.Tenant, error) {
	return nil, nil // Handled by Auth Middleware, not Handlers
}

func (m *mockStore) GetTenantByAPIKeyHash(ctx context.Context, hash string) (*store.Tenant, error) {
	return nil, nil // Handled by Auth Middleware, not Handlers
}

func (m *mockStore) Publish(ctx context.Context, tx store.DBTransaction, queue string, payload json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.publishedQueues = append(m.publishedQueues, queue)
	return nil
}

func (m *mockStore) DequeueBatch(ctx context.Context, queue string, limit int) ([]store.QueueItem, error) {
	return m.dequeueBatchResp, m.dequeueBatchErr
}

func (m *mockStore) Ack(ctx context.Context, ids []int64) error {
	m.capturedAckIDs = ids
	return m.ackErr
}

func (m *mockStore) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func newTestHandlers(t *testing.T, m *mockStore) *Handlers {
	t.Helper()
	ids, err := idgen.New(1)
	if err != nil {
		t.Fatalf("idgen.New failed: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(m, coordinator.New(m, ids, log))
}
