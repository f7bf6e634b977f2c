// Package api contains shared JSON request/response structs and the
// queue command envelopes. This package is shared between the CLI, the
// coordinator and the agents consuming the dispatch queues.
package api

import "time"

// Management queue actions.
const (
	ActionKill      = "KILL"
	ActionReconcile = "RECONCILE"
)

// TaskAgentRel identifies which agent should receive a management
// command for which task.
type TaskAgentRel struct {
	TaskID   int64  `json:"taskId"`
	TaskName string `json:"taskName"`
	AgentID  string `json:"agentId"`
}

// TaskManagement is the envelope published to the management queue.
// It is built fresh per coordinator call and never persisted.
type TaskManagement struct {
	Action        string         `json:"action"`
	TaskAgentRels []TaskAgentRel `json:"taskAgentRels"`
}

// DispatchTask is the command published to the task queue when a new
// task is submitted. Agents pull it and start execution.
type DispatchTask struct {
	TaskID      int64  `json:"taskId"`
	TenantID    string `json:"tenantId"`
	TaskName    string `json:"taskName"`
	RunMode     string `json:"runMode"`
	Commands    string `json:"commands,omitempty"`
	DockerImage string `json:"dockerImage,omitempty"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// CreateTenantRequest is the request body for creating a new tenant.
type CreateTenantRequest struct {
	Name           string `json:"name"`
	RateLimit      int    `json:"rate_limit,omitempty"`
	RateLimitBurst int    `json:"rate_limit_burst,omitempty"`
}

// CreateTenantResponse is the response body after creating a tenant.
// The API key is returned exactly once; only its hash is stored.
type CreateTenantResponse struct {
	ID     string `json:"tenant_id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

// SubmitTaskRequest is the request body for submitting a new task.
// Commands and DockerImage are mutually exclusive; a non-empty
// DockerImage selects the CONTAINER run mode.
type SubmitTaskRequest struct {
	TaskName    string `json:"taskName"`
	Commands    string `json:"commands,omitempty"`
	DockerImage string `json:"dockerImage,omitempty"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// SubmitTaskResponse is the response body after submitting a task.
type SubmitTaskResponse struct {
	TaskID int64 `json:"taskId"`
}

// KillTaskResponse is the response body for a kill request. Accepted
// is false when the task already finished; that is a defined outcome,
// not an error.
type KillTaskResponse struct {
	Accepted bool   `json:"accepted"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// TaskResponse represents a task in query responses.
type TaskResponse struct {
	TaskID      int64      `json:"taskId"`
	TaskName    string     `json:"taskName"`
	RunMode     string     `json:"runMode"`
	Status      string     `json:"status"`
	AgentID     string     `json:"agentId,omitempty"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Commands    string     `json:"commands,omitempty"`
	DockerImage string     `json:"dockerImage,omitempty"`
}

// QueryTasksResponse is the response body for task queries.
type QueryTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// ReconcileRequest is the request body for a batch reconcile.
type ReconcileRequest struct {
	TaskIDs []int64 `json:"taskIds"`
}

// ReconcileDetail is the per-task outcome of a reconcile call.
type ReconcileDetail struct {
	TaskID     int64  `json:"taskId"`
	Reconciled bool   `json:"reconciled"`
	Message    string `json:"message"`
}

// ReconcileSummary aggregates the per-task reconcile outcomes.
type ReconcileSummary struct {
	Requested  int               `json:"requested"`
	Reconciled int               `json:"reconciledCount"`
	Details    []ReconcileDetail `json:"details"`
}

// ClaimDispatchRequest is sent by agents to pull pending commands.
type ClaimDispatchRequest struct {
	Queue string `json:"queue"`
	Limit int    `json:"limit,omitempty"`
}

// DispatchItem is a single claimed queue entry. The agent must ack the
// entry id once the command has been handled.
type DispatchItem struct {
	ID      int64  `json:"id"`
	Payload []byte `json:"payload"`
}

// ClaimDispatchResponse is the response body for a claim request.
type ClaimDispatchResponse struct {
	Items []DispatchItem `json:"items"`
}

// AckDispatchRequest removes handled entries from the queue.
type AckDispatchRequest struct {
	IDs []int64 `json:"ids"`
}

// UpdateTaskStatusRequest is sent by agents to report task state:
// RUNNING with the claiming agent id, or a terminal status with an
// explanatory message.
type UpdateTaskStatusRequest struct {
	Status  string `json:"status"`
	AgentID string `json:"agentId,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
