package handlers

import (
	"encoding/json"
	"net/http"

	"field-backend/internal/apperrors"
	"field-backend/internal/cache"
	"field-backend/internal/metrics"
	"field-backend/internal/middleware"
	"field-backend/internal/models"
	"field-backend/internal/services"

	"github.com/gorilla/mux"
)

type StatusHandler struct {
	Manager *services.StatusManager
}

func NewStatusHandler(manager *services.StatusManager) *StatusHandler {
	return &StatusHandler{Manager: manager}
}

// Transition handles POST /api/jobs/{job_id}/technicians/{tech_id}/status.
// Technicians may only move their own assignment; admins may move anyone's.
func (h *StatusHandler) Transition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req models.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.JobID = vars["job_id"]
	req.TechnicianID = vars["tech_id"]

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}
	role, _ := middleware.GetRoleFromContext(r.Context())
	req.ActorRole = role

	if role != models.RoleAdmin && userID != req.TechnicianID {
		http.Error(w, "Forbidden: technicians can only update their own status", http.StatusForbidden)
		return
	}

	result, err := h.Manager.Transition(r.Context(), &req)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindConflict) {
			metrics.TransitionConflicts.Inc()
		}
		metrics.TransitionsTotal.WithLabelValues(string(req.NewStatus), "rejected").Inc()
		writeError(w, err)
		return
	}

	outcome := "applied"
	if result.Replayed {
		outcome = "replayed"
	}
	metrics.TransitionsTotal.WithLabelValues(string(req.NewStatus), outcome).Inc()
	cache.InvalidateStatusCaches(r.Context(), req.JobID)

	writeJSON(w, http.StatusOK, result)
}

// Current handles GET /api/jobs/{job_id}/technicians/{tech_id}/status.
func (h *StatusHandler) Current(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	current, err := h.Manager.Current(r.Context(), vars["job_id"], vars["tech_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if current == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"current": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"current": current})
}
