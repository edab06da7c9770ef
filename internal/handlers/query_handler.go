package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"field-backend/internal/cache"
	"field-backend/internal/middleware"
	"field-backend/internal/models"
	"field-backend/internal/services"

	"github.com/gorilla/mux"
)

type QueryHandler struct {
	Queries *services.StatusQueryService
}

func NewQueryHandler(queries *services.StatusQueryService) *QueryHandler {
	return &QueryHandler{Queries: queries}
}

// Dashboard handles GET /api/jobs/{job_id}/technicians/{tech_id}/dashboard.
// The caller's role shapes the badge and the offered actions.
func (h *QueryHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	role, _ := middleware.GetRoleFromContext(r.Context())
	dashboard, err := h.Queries.Dashboard(r.Context(), vars["job_id"], vars["tech_id"], role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// PendingReview handles GET /api/admin/pending-review (admin only).
func (h *QueryHandler) PendingReview(w http.ResponseWriter, r *http.Request) {
	if data, ok := cache.GetCached(r.Context(), cache.PendingReviewKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}

	pending, err := h.Queries.PendingReview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if pending == nil {
		pending = []*models.CurrentStatus{}
	}

	if data, err := json.Marshal(pending); err == nil {
		cache.SetCached(r.Context(), cache.PendingReviewKey, data, time.Minute)
	}
	writeJSON(w, http.StatusOK, pending)
}

// TimeSummary handles GET /api/jobs/{job_id}/time-summary.
func (h *QueryHandler) TimeSummary(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	// Short TTL: open intervals accrue against the clock, so the cached
	// response only has to stay fresh enough for dashboard polling.
	if data, ok := cache.GetCached(r.Context(), cache.TimeSummaryKey(jobID)); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}

	summary, err := h.Queries.TimeSummary(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}

	if data, err := json.Marshal(summary); err == nil {
		cache.SetCached(r.Context(), cache.TimeSummaryKey(jobID), data, 30*time.Second)
	}
	writeJSON(w, http.StatusOK, summary)
}
