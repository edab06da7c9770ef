package repositories

import (
	"context"
	"errors"

	"field-backend/internal/apperrors"
	"field-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AssignmentRepository struct {
	DB *pgxpool.Pool
}

func NewAssignmentRepository(db *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *models.JobAssignment) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO job_assignments(job_id, technician_id, is_primary)
         VALUES($1, $2, $3)
         RETURNING id, created_at`,
		a.JobID, a.TechnicianID, a.IsPrimary,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "create assignment", err)
	}
	return nil
}

// Get returns the assignment for a pair, or a not-found error. Status and
// clock writes are rejected for pairs that were never assigned.
func (r *AssignmentRepository) Get(ctx context.Context, jobID, technicianID string) (*models.JobAssignment, error) {
	var a models.JobAssignment
	err := r.DB.QueryRow(ctx,
		`SELECT id, job_id, technician_id, is_primary, created_at
         FROM job_assignments WHERE job_id=$1 AND technician_id=$2`,
		jobID, technicianID,
	).Scan(&a.ID, &a.JobID, &a.TechnicianID, &a.IsPrimary, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "technician is not assigned to this job")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "get assignment", err)
	}
	return &a, nil
}

func (r *AssignmentRepository) ListForJob(ctx context.Context, jobID string) ([]*models.JobAssignment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, job_id, technician_id, is_primary, created_at
         FROM job_assignments WHERE job_id=$1
         ORDER BY is_primary DESC, created_at ASC`, jobID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "list assignments", err)
	}
	defer rows.Close()

	var out []*models.JobAssignment
	for rows.Next() {
		var a models.JobAssignment
		if err := rows.Scan(&a.ID, &a.JobID, &a.TechnicianID, &a.IsPrimary, &a.CreatedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.KindPersistence, "scan assignment", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
