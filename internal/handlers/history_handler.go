package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"field-backend/internal/cache"
	"field-backend/internal/middleware"
	"field-backend/internal/models"
	"field-backend/internal/services"

	"github.com/gorilla/mux"
)

type HistoryHandler struct {
	Ledger *services.StatusHistoryLedger
}

func NewHistoryHandler(ledger *services.StatusHistoryLedger) *HistoryHandler {
	return &HistoryHandler{Ledger: ledger}
}

// List handles GET /api/jobs/{job_id}/technicians/{tech_id}/history.
// ?phase=start limits the response to start entries.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID, techID := vars["job_id"], vars["tech_id"]

	var (
		entries []*models.StatusHistoryEntry
		err     error
	)
	if r.URL.Query().Get("phase") == "start" {
		entries, err = h.Ledger.ListStarts(r.Context(), jobID, techID)
	} else {
		entries, err = h.Ledger.List(r.Context(), jobID, techID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.StatusHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Add handles POST /api/admin/history (admin only).
func (h *HistoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AddHistoryEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	entry, err := h.Ledger.AddEntry(r.Context(), adminID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	cache.InvalidateStatusCaches(r.Context(), req.JobID)
	writeJSON(w, http.StatusCreated, entry)
}

// Update handles PUT /api/admin/history/{id} (admin only).
func (h *HistoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid history entry id", http.StatusBadRequest)
		return
	}

	var req models.UpdateHistoryEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	entry, err := h.Ledger.EditEntry(r.Context(), adminID, id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	cache.InvalidateStatusCaches(r.Context(), entry.JobID)
	writeJSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /api/admin/history/{id} (admin only).
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid history entry id", http.StatusBadRequest)
		return
	}

	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.Ledger.DeleteEntry(r.Context(), adminID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
