// Package server contains the HTTP API for the coordinator.
package server

import (
	"context"
	"net/http"
	"time"

	"taskplane/internal/coordinator"
	"taskplane/internal/server/handlers"
	"taskplane/internal/server/middleware"
)

// Server is the HTTP server for the coordinator API.
type Server struct {
	httpServer *http.Server
}

// New creates a new coordinator server.
func New(addr string, store handlers.StoreFactory, coord *coordinator.Coordinator, systemSecret string, metricsHandler http.Handler) *Server {
	h := handlers.New(store, coord)
	authMW := middleware.Auth(store)
	rateMW := middleware.RateLimit()
	internalMW := middleware.RequireInternalAuth(systemSecret)

	tenantScoped := func(handler http.HandlerFunc) http.Handler {
		return authMW(rateMW(handler))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /tenants", h.CreateTenant)

	// Public authenticated apis
	mux.Handle("POST /tasks", tenantScoped(h.SubmitTask))
	mux.Handle("POST /tasks/{id}/kill", tenantScoped(h.KillTask))
	mux.Handle("GET /tasks", tenantScoped(h.QueryTasks))
	mux.Handle("POST /tasks/reconcile", tenantScoped(h.ReconcileTasks))

	// Internal endpoints, called by execution agents.
	// These should run on a separate port or strict network rules.
	mux.Handle("POST /internal/dispatch/claim", internalMW(http.HandlerFunc(h.ClaimDispatch)))
	mux.Handle("POST /internal/dispatch/ack", internalMW(http.HandlerFunc(h.AckDispatch)))
	mux.Handle("PUT /internal/tasks/{id}/status", internalMW(http.HandlerFunc(h.UpdateTaskStatus)))

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
