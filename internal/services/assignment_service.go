package services

import (
	"context"

	"field-backend/internal/apperrors"
	"field-backend/internal/models"
	"field-backend/internal/repositories"
)

type AssignmentService struct {
	Repo *repositories.AssignmentRepository
}

func NewAssignmentService(repo *repositories.AssignmentRepository) *AssignmentService {
	return &AssignmentService{Repo: repo}
}

func (s *AssignmentService) Create(ctx context.Context, req *models.CreateAssignmentRequest) (*models.JobAssignment, error) {
	if req.JobID == "" || req.TechnicianID == "" {
		return nil, apperrors.Validationf("job id and technician id are required")
	}
	a := &models.JobAssignment{
		JobID:        req.JobID,
		TechnicianID: req.TechnicianID,
		IsPrimary:    req.IsPrimary,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssignmentService) ListForJob(ctx context.Context, jobID string) ([]*models.JobAssignment, error) {
	if jobID == "" {
		return nil, apperrors.Validationf("job id is required")
	}
	return s.Repo.ListForJob(ctx, jobID)
}
