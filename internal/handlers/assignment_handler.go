package handlers

import (
	"encoding/json"
	"net/http"

	"field-backend/internal/models"
	"field-backend/internal/services"

	"github.com/gorilla/mux"
)

type AssignmentHandler struct {
	Service *services.AssignmentService
}

func NewAssignmentHandler(service *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{Service: service}
}

// Create handles POST /api/assignments (admin only).
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	assignment, err := h.Service.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}

// ListForJob handles GET /api/jobs/{job_id}/assignments.
func (h *AssignmentHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Service.ListForJob(r.Context(), mux.Vars(r)["job_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if assignments == nil {
		assignments = []*models.JobAssignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}
