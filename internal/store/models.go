// Package store contains the database layer for taskplane.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tenant represents a tenant in the multi-tenant system.
// All task operations must be scoped by TenantID.
type Tenant struct {
	ID             uuid.UUID
	Name           string
	RateLimit      int
	RateLimitBurst int
	CreatedAt      time.Time
}

// RunMode selects how an agent executes a task.
type RunMode string

const (
	RunModeCommand   RunMode = "COMMAND"
	RunModeContainer RunMode = "CONTAINER"
)

// TaskStatus is the ordered life-cycle state of a task. The numeric
// ordering is load-bearing: any status greater than StatusRunning is
// terminal and the task is never reopened.
type TaskStatus int

const (
	StatusPending TaskStatus = iota + 1
	StatusRunning
	StatusSucceeded
	StatusFailed
	StatusKilled
	StatusExpired
)

var statusNames = map[TaskStatus]string{
	StatusPending:   "PENDING",
	StatusRunning:   "RUNNING",
	StatusSucceeded: "SUCCEEDED",
	StatusFailed:    "FAILED",
	StatusKilled:    "KILLED",
	StatusExpired:   "EXPIRED",
}

func (s TaskStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// Terminal reports whether no further status transition is permitted.
func (s TaskStatus) Terminal() bool {
	return s > StatusRunning
}

// ParseTaskStatus converts a status name reported by an agent.
func ParseTaskStatus(name string) (TaskStatus, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown task status %q", name)
}

// Task is one row per submitted unit of work. TaskID, TenantID,
// TaskName and RunMode are immutable after submission; AgentID may be
// reassigned only while the status is at most RUNNING.
type Task struct {
	TaskID      int64
	TenantID    uuid.UUID
	TaskName    string
	RunMode     RunMode
	Commands    string
	DockerImage string
	TaskStatus  TaskStatus
	AgentID     string
	Message     string
	CallbackURL string
	CreatedAt   time.Time
	FinishedAt  *time.Time
}
