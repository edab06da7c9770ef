package handlers

import (
	"encoding/json"
	"net/http"

	"field-backend/internal/cache"
	"field-backend/internal/metrics"
	"field-backend/internal/middleware"
	"field-backend/internal/models"
	"field-backend/internal/services"

	"github.com/gorilla/mux"
)

type ClockHandler struct {
	Ledger *services.ClockLedger
}

func NewClockHandler(ledger *services.ClockLedger) *ClockHandler {
	return &ClockHandler{Ledger: ledger}
}

// Record handles POST /api/jobs/{job_id}/clock. The authenticated user
// clocks against their own assignment.
func (h *ClockHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req models.RecordClockEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.JobID = mux.Vars(r)["job_id"]

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}
	req.UserID = userID

	event, phase, err := h.Ledger.Record(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.ClockEventsTotal.WithLabelValues(string(req.EventType)).Inc()
	cache.InvalidateStatusCaches(r.Context(), req.JobID)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"event": event,
		"phase": phase,
	})
}

// Phase handles GET /api/jobs/{job_id}/clock/phase.
func (h *ClockHandler) Phase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	phase, err := h.Ledger.CurrentPhase(r.Context(), mux.Vars(r)["job_id"], userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"phase": phase})
}

// Events handles GET /api/jobs/{job_id}/technicians/{tech_id}/clock.
func (h *ClockHandler) Events(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	events, err := h.Ledger.EventsForAssignment(r.Context(), vars["job_id"], vars["tech_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []*models.ClockEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
