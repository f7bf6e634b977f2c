package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"taskplane/internal/coordinator"
	"taskplane/internal/server/middleware"
	"taskplane/internal/store"
	"taskplane/pkg/api"
)

// SubmitTask handles POST /tasks.
// It records the task and announces it on the task queue.
func (h *Handlers) SubmitTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SubmitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.TaskName == "" {
		h.httpError(w, "taskName is required", http.StatusBadRequest)
		return
	}
	if req.Commands == "" && req.DockerImage == "" {
		h.httpError(w, "either commands or dockerImage is required", http.StatusBadRequest)
		return
	}
	if req.Commands != "" && req.DockerImage != "" {
		h.httpError(w, "commands and dockerImage are mutually exclusive", http.StatusBadRequest)
		return
	}

	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	taskID, err := h.coord.Submit(ctx, tenantID, req)
	if err != nil {
		h.httpError(w, "Failed to submit task", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.SubmitTaskResponse{TaskID: taskID})
}

// KillTask handles POST /tasks/{id}/kill.
// A kill against a finished task returns accepted=false, not an error.
func (h *Handlers) KillTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.httpError(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	res, err := h.coord.Kill(ctx, tenantID, taskID)
	if err != nil {
		if errors.Is(err, coordinator.ErrTaskNotFound) {
			h.httpError(w, "Task not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to kill task", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, res)
}

// QueryTasks handles GET /tasks?id=100&id=200.
// Missing ids are silently omitted from the response.
func (h *Handlers) QueryTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskIDs, err := parseTaskIDs(r.URL.Query()["id"])
	if err != nil {
		h.httpError(w, "Invalid task id", http.StatusBadRequest)
		return
	}
	if len(taskIDs) == 0 {
		h.httpError(w, "at least one id is required", http.StatusBadRequest)
		return
	}

	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tasks, err := h.coord.Query(ctx, tenantID, taskIDs)
	if err != nil {
		h.httpError(w, "Failed to query tasks", http.StatusInternalServerError)
		return
	}

	resp := api.QueryTasksResponse{Tasks: make([]api.TaskResponse, 0, len(tasks))}
	for _, task := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(task))
	}
	h.respondJson(w, http.StatusOK, resp)
}

// ReconcileTasks handles POST /tasks/reconcile.
func (h *Handlers) ReconcileTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.TaskIDs) == 0 {
		h.httpError(w, "taskIds is required", http.StatusBadRequest)
		return
	}

	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summary, err := h.coord.Reconcile(ctx, tenantID, req.TaskIDs)
	if err != nil {
		if errors.Is(err, coordinator.ErrReconcileMismatch) {
			h.respondJson(w, http.StatusInternalServerError, api.ErrorResponse{
				Error: "Reconcile aborted",
				Code:  "OBJECT_NOT_EQUAL",
			})
			return
		}
		h.httpError(w, "Failed to reconcile tasks", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, summary)
}

func parseTaskIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toTaskResponse(task store.Task) api.TaskResponse {
	return api.TaskResponse{
		TaskID:      task.TaskID,
		TaskName:    task.TaskName,
		RunMode:     string(task.RunMode),
		Status:      task.TaskStatus.String(),
		AgentID:     task.AgentID,
		Message:     task.Message,
		CreatedAt:   task.CreatedAt,
		FinishedAt:  task.FinishedAt,
		Commands:    task.Commands,
		DockerImage: task.DockerImage,
	}
}
