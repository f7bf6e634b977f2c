package coordinator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"taskplane/internal/idgen"
	"taskplane/internal/store"
	"taskplane/pkg/api"

	"github.com/google/uuid"
)

// Mock transaction
type mockTx struct {
	commitErr error
	committed bool
}

func (m *mockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (m *mockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (m *mockTx) Commit() error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback() error { return nil }

// published records one Publish call.
type published struct {
	queue   string
	payload json.RawMessage
	inTx    bool
}

// Mock Store
type mockStore struct {
	mu sync.Mutex

	beginTxErr    error
	tx            *mockTx
	insertTaskErr error
	insertedResp  bool
	insertedTask  *store.Task
	getTaskResp   *store.Task
	getTaskErr    error
	getTasksResp  []store.Task
	getTasksErr   error
	finishTaskErr error
	publishErr    error

	finished  []int64
	published []published
}

func (m *mockStore) BeginTx(ctx context.Context) (store.Tx, error) {
	if m.beginTxErr != nil {
		return nil, m.beginTxErr
	}
	if m.tx == nil {
		m.tx = &mockTx{}
	}
	return m.tx, nil
}

func (m *mockStore) InsertTask(ctx context.Context, tx store.DBTransaction, task *store.Task) (bool, error) {
	m.insertedTask = task
	return m.insertedResp, m.insertTaskErr
}

func (m *mockStore) GetTask(ctx context.Context, tenantID uuid.UUID, taskID int64) (*store.Task, error) {
	return m.getTaskResp, m.getTaskErr
}

func (m *mockStore) GetTasks(ctx context.Context, tenantID uuid.UUID, taskIDs []int64) ([]store.Task, error) {
	return m.getTasksResp, m.getTasksErr
}

func (m *mockStore) FinishTask(ctx context.Context, taskID int64, status store.TaskStatus, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finishTaskErr != nil {
		return m.finishTaskErr
	}
	m.finished = append(m.finished, taskID)
	return nil
}

func (m *mockStore) AssignTask(ctx context.Context, taskID int64, agentID string) error {
	return nil
}

func (m *mockStore) Publish(ctx context.Context, tx store.DBTransaction, queue string, payload json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, published{queue: queue, payload: payload, inTx: tx != nil})
	return nil
}

func (m *mockStore) DequeueBatch(ctx context.Context, queue string, limit int) ([]store.QueueItem, error) {
	return nil, nil
}

func (m *mockStore) Ack(ctx context.Context, ids []int64) error { return nil }

func (m *mockStore) Count(ctx context.Context) (int64, error) { return 0, nil }

func newTestCoordinator(t *testing.T, m *mockStore) *Coordinator {
	t.Helper()
	ids, err := idgen.New(1)
	if err != nil {
		t.Fatalf("idgen.New failed: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(m, ids, log)
}

func TestSubmit_CommandMode(t *testing.T) {
	m := &mockStore{insertedResp: true}
	c := newTestCoordinator(t, m)
	tenantID := uuid.New()

	taskID, err := c.Submit(context.Background(), tenantID, api.SubmitTaskRequest{
		TaskName: "nightly-report",
		Commands: "echo hello",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if taskID <= 0 {
		t.Fatalf("got task id %d, want positive", taskID)
	}

	if m.insertedTask == nil {
		t.Fatal("expected InsertTask to be called")
	}
	if m.insertedTask.RunMode != store.RunModeCommand {
		t.Errorf("got run mode %s, want COMMAND", m.insertedTask.RunMode)
	}
	if m.insertedTask.TaskStatus != store.StatusPending {
		t.Errorf("got status %v, want PENDING", m.insertedTask.TaskStatus)
	}
	if !m.tx.committed {
		t.Error("expected the insert transaction to be committed")
	}

	if len(m.published) != 1 {
		t.Fatalf("got %d publishes, want 1", len(m.published))
	}
	if m.published[0].queue != store.QueueTasks {
		t.Errorf("published to %s, want %s", m.published[0].queue, store.QueueTasks)
	}

	var cmd api.DispatchTask
	if err := json.Unmarshal(m.published[0].payload, &cmd); err != nil {
		t.Fatalf("failed to unmarshal dispatch command: %v", err)
	}
	if cmd.TaskID != taskID {
		t.Errorf("dispatch carries task id %d, want %d", cmd.TaskID, taskID)
	}
	if cmd.Commands != "echo hello" || cmd.DockerImage != "" {
		t.Errorf("unexpected payload fields: %+v", cmd)
	}
}

func TestSubmit_ContainerModeDerivedFromImage(t *testing.T) {
	m := &mockStore{insertedResp: true}
	c := newTestCoordinator(t, m)

	_, err := c.Submit(context.Background(), uuid.New(), api.SubmitTaskRequest{
		TaskName:    "etl",
		DockerImage: "alpine:latest",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if m.insertedTask.RunMode != store.RunModeContainer {
		t.Errorf("got run mode %s, want CONTAINER", m.insertedTask.RunMode)
	}
	if m.insertedTask.DockerImage != "alpine:latest" {
		t.Errorf("got image %s, want alpine:latest", m.insertedTask.DockerImage)
	}
	if m.insertedTask.Commands != "" {
		t.Errorf("commands must stay empty in container mode, got %q", m.insertedTask.Commands)
	}
}

func TestSubmit_PublishFailureStillReturnsTaskID(t *testing.T) {
	m := &mockStore{insertedResp: true, publishErr: errors.New("queue down")}
	c := newTestCoordinator(t, m)

	taskID, err := c.Submit(context.Background(), uuid.New(), api.SubmitTaskRequest{
		TaskName: "best-effort",
		Commands: "true",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if taskID <= 0 {
		t.Error("expected task id despite publish failure")
	}
	if !m.tx.committed {
		t.Error("the row must be committed even when the publish fails")
	}
}

func TestSubmit_NoDispatchWithoutInsert(t *testing.T) {
	m := &mockStore{insertedResp: false}
	c := newTestCoordinator(t, m)

	taskID, err := c.Submit(context.Background(), uuid.New(), api.SubmitTaskRequest{
		TaskName: "dupe",
		Commands: "true",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if taskID <= 0 {
		t.Error("expected a task id")
	}
	if len(m.published) != 0 {
		t.Errorf("got %d publishes, want 0 when the insert did not land", len(m.published))
	}
}

func TestSubmit_InsertErrorAborts(t *testing.T) {
	m := &mockStore{insertTaskErr: errors.New("disk full")}
	c := newTestCoordinator(t, m)

	_, err := c.Submit(context.Background(), uuid.New(), api.SubmitTaskRequest{
		TaskName: "doomed",
		Commands: "true",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(m.published) != 0 {
		t.Error("nothing may be published when the insert fails")
	}
}

func TestKill_NotFound(t *testing.T) {
	m := &mockStore{}
	c := newTestCoordinator(t, m)

	_, err := c.Kill(context.Background(), uuid.New(), 404)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("got %v, want ErrTaskNotFound", err)
	}
}

func TestKill_RunningTaskPublishesEnvelope(t *testing.T) {
	m := &mockStore{getTaskResp: &store.Task{
		TaskID:     1001,
		TaskName:   "long-job",
		TaskStatus: store.StatusRunning,
		AgentID:    "agent-7",
	}}
	c := newTestCoordinator(t, m)

	res, err := c.Kill(context.Background(), uuid.New(), 1001)
	if err != nil {
		t.Fatalf("Kill failed: %v", err)
	}
	if !res.Accepted {
		t.Error("expected accepted=true")
	}
	if res.Status != "RUNNING" {
		t.Errorf("got status %s, want RUNNING", res.Status)
	}

	if len(m.published) != 1 {
		t.Fatalf("got %d publishes, want 1", len(m.published))
	}
	if m.published[0].queue != store.QueueManagement {
		t.Errorf("published to %s, want %s", m.published[0].queue, store.QueueManagement)
	}

	var envelope api.TaskManagement
	if err := json.Unmarshal(m.published[0].payload, &envelope); err != nil {
		t.Fatalf("failed to unmarshal envelope: %v", err)
	}
	if envelope.Action != api.ActionKill {
		t.Errorf("got action %s, want KILL", envelope.Action)
	}
	if len(envelope.TaskAgentRels) != 1 {
		t.Fatalf("got %d rels, want exactly 1", len(envelope.TaskAgentRels))
	}
	rel := envelope.TaskAgentRels[0]
	if rel.TaskID != 1001 || rel.AgentID != "agent-7" {
		t.Errorf("unexpected rel: %+v", rel)
	}
}

func TestKill_TerminalTaskIsIdempotentNoOp(t *testing.T) {
	m := &mockStore{getTaskResp: &store.Task{
		TaskID:     1001,
		TaskName:   "done-job",
		TaskStatus: store.StatusSucceeded,
		Message:    "exit 0",
	}}
	c := newTestCoordinator(t, m)

	for i := 0; i < 2; i++ {
		res, err := c.Kill(context.Background(), uuid.New(), 1001)
		if err != nil {
			t.Fatalf("Kill failed: %v", err)
		}
		if res.Accepted {
			t.Error("expected accepted=false for terminal task")
		}
		if res.Status != "SUCCEEDED" {
			t.Errorf("got status %s, want SUCCEEDED", res.Status)
		}
		if res.Message != "exit 0" {
			t.Errorf("got message %q, want existing task message", res.Message)
		}
	}
	if len(m.published) != 0 {
		t.Errorf("got %d publishes, want 0 for terminal task", len(m.published))
	}
}

func TestQuery_ReadThrough(t *testing.T) {
	m := &mockStore{getTasksResp: []store.Task{
		{TaskID: 100, TaskStatus: store.StatusRunning},
	}}
	c := newTestCoordinator(t, m)

	tasks, err := c.Query(context.Background(), uuid.New(), []int64{100, 300})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1 (missing ids silently omitted)", len(tasks))
	}
	if len(m.published) != 0 {
		t.Error("query must have no side effects")
	}
}
