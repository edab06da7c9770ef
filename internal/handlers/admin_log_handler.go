package handlers

import (
	"net/http"
	"strconv"

	"field-backend/internal/models"
	"field-backend/internal/repositories"
)

type AdminLogHandler struct {
	Repo *repositories.AdminActionLogRepository
}

func NewAdminLogHandler(repo *repositories.AdminActionLogRepository) *AdminLogHandler {
	return &AdminLogHandler{Repo: repo}
}

// List handles GET /api/admin/action-logs?limit=N (admin only).
func (h *AdminLogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := h.Repo.ListAllActionLogs(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []*models.AdminActionLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
