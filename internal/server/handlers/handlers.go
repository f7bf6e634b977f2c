// Package handlers contains HTTP handlers for the coordinator API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"taskplane/internal/coordinator"
	"taskplane/internal/store"
	"taskplane/pkg/api"
)

// StoreFactory combines the interfaces needed for the API layer to function.
type StoreFactory interface {
	BeginTx(ctx context.Context) (store.Tx, error)
	Ping(ctx context.Context) error
	store.TaskStore
	store.TenantStore
	store.Queue
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store StoreFactory
	coord *coordinator.Coordinator
}

// New creates a new Handlers instance.
func New(s StoreFactory, coord *coordinator.Coordinator) *Handlers {
	return &Handlers{store: s, coord: coord}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
