package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"taskplane/internal/store"
	"taskplane/pkg/api"
)

// ---------------------------------------------------------
// Internal Agent Endpoints
// These do NOT use the tenant middleware; they are protected
// by the shared system secret.
// ---------------------------------------------------------

const maxClaimBatch = 100

// ClaimDispatch handles POST /internal/dispatch/claim.
// Agents pull pending commands from a named queue. Claimed entries
// stay invisible until acked or until the claim timeout expires.
func (h *Handlers) ClaimDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ClaimDispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Queue != store.QueueTasks && req.Queue != store.QueueManagement {
		h.httpError(w, "Unknown queue", http.StatusBadRequest)
		return
	}
	if req.Limit <= 0 || req.Limit > maxClaimBatch {
		req.Limit = maxClaimBatch
	}

	items, err := h.store.DequeueBatch(ctx, req.Queue, req.Limit)
	if err != nil {
		h.httpError(w, "Failed to claim dispatch entries", http.StatusInternalServerError)
		return
	}

	resp := api.ClaimDispatchResponse{Items: make([]api.DispatchItem, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, api.DispatchItem{ID: item.ID, Payload: item.Payload})
	}
	h.respondJson(w, http.StatusOK, resp)
}

// AckDispatch handles POST /internal/dispatch/ack.
func (h *Handlers) AckDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.AckDispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.Ack(ctx, req.IDs); err != nil {
		h.httpError(w, "Failed to ack dispatch entries", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// UpdateTaskStatus handles PUT /internal/tasks/{id}/status.
// Agents report RUNNING with their agent id when they claim a task,
// and a terminal status with a message when it finishes. Both writes
// are status-guarded in the store, so a finished task never reopens.
func (h *Handlers) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.httpError(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	var req api.UpdateTaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status, err := store.ParseTaskStatus(req.Status)
	if err != nil {
		h.httpError(w, "Unknown task status", http.StatusBadRequest)
		return
	}

	switch {
	case status == store.StatusRunning:
		if req.AgentID == "" {
			h.httpError(w, "agentId is required for RUNNING", http.StatusBadRequest)
			return
		}
		err = h.store.AssignTask(ctx, taskID, req.AgentID)
	case status.Terminal():
		err = h.store.FinishTask(ctx, taskID, status, req.Message)
	default:
		h.httpError(w, "Status must be RUNNING or terminal", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.httpError(w, "Failed to update task status", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
