package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/ledger"
)

// sessionHandlerFunc is a handler bound to the calling session's ledger.
type sessionHandlerFunc func(w http.ResponseWriter, r *http.Request, led *ledger.Ledger)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.sessions == nil {
		checks["sessions"] = "failed: registry not configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["sessions"] = "ok"
		checks["session_count"] = s.sessions.Len()
	}

	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
		"metrics": map[string]int64{
			"commands_processed": atomic.LoadInt64(&s.appMetrics.totalCommands),
			"queries_served":     atomic.LoadInt64(&s.appMetrics.totalQueries),
		},
	})
}

// writeCommandError maps ledger errors onto typed, recoverable API failures.
// Nothing the ledger rejects is fatal; state is left exactly as it was.
func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Error("invalid_amount", "Amount must be a positive number").
			Write(w)
	case errors.Is(err, core.ErrDescriptionTooLong):
		NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Error("invalid_description", "Description must be at most 200 characters").
			Write(w)
	case errors.Is(err, core.ErrNotInitialized):
		NewJSONResponse().
			Status(http.StatusConflict).
			Error("not_initialized", "Set a starting balance before recording expenses").
			Write(w)
	case errors.Is(err, core.ErrAlreadyInitialized):
		NewJSONResponse().
			Status(http.StatusConflict).
			Error("already_initialized", "Starting balance is already set; reset the ledger first").
			Write(w)
	default:
		NewJSONResponse().
			Status(http.StatusInternalServerError).
			Error("internal", "Unexpected error").
			Write(w)
	}
}
