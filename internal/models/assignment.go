package models

import "time"

// JobAssignment pins a technician to a job. Immutable once created;
// reassignment happens elsewhere.
type JobAssignment struct {
	ID           int64     `json:"id"`
	JobID        string    `json:"job_id"`
	TechnicianID string    `json:"technician_id"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateAssignmentRequest struct {
	JobID        string `json:"job_id"`
	TechnicianID string `json:"technician_id"`
	IsPrimary    bool   `json:"is_primary"`
}
