package services

import (
	"context"
	"time"

	"field-backend/internal/models"
	"field-backend/internal/repositories"
)

// Store interfaces let the state-machine services run against the pgx
// repositories in production and in-memory fakes in tests.

// TransitionStore is the projection plus its transactional write path.
type TransitionStore interface {
	ApplyTransition(ctx context.Context, p repositories.ApplyTransitionParams) (*models.CurrentStatus, bool, error)
	Get(ctx context.Context, jobID, technicianID string) (*models.CurrentStatus, error)
	Overwrite(ctx context.Context, jobID, technicianID string, status models.JobStatus, updatedAt time.Time) error
	Clear(ctx context.Context, jobID, technicianID string) error
	ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.CurrentStatus, error)
}

// HistoryStore is the append-only status audit trail with its privileged
// correction operations.
type HistoryStore interface {
	Append(ctx context.Context, e *models.StatusHistoryEntry) error
	ListForAssignment(ctx context.Context, jobID, technicianID string) ([]*models.StatusHistoryEntry, error)
	ListStartsForAssignment(ctx context.Context, jobID, technicianID string) ([]*models.StatusHistoryEntry, error)
	Get(ctx context.Context, id int64) (*models.StatusHistoryEntry, error)
	LatestStart(ctx context.Context, jobID, technicianID string) (*models.StatusHistoryEntry, error)
	Update(ctx context.Context, id int64, status models.JobStatus, notes string, createdAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

// ClockStore is the append-only clock ledger. Record serializes per
// (job, user) pair and rejects alternation violations.
type ClockStore interface {
	Record(ctx context.Context, e *models.ClockEvent) (models.ClockPhase, error)
	Latest(ctx context.Context, jobID, userID string) (*models.ClockEvent, error)
	ListForAssignment(ctx context.Context, jobID, userID string) ([]*models.ClockEvent, error)
	ListForJob(ctx context.Context, jobID string) ([]*models.ClockEvent, error)
}

// AssignmentStore resolves (job, technician) pairs.
type AssignmentStore interface {
	Get(ctx context.Context, jobID, technicianID string) (*models.JobAssignment, error)
	ListForJob(ctx context.Context, jobID string) ([]*models.JobAssignment, error)
}

// ActionLogStore records privileged history corrections.
type ActionLogStore interface {
	CreateActionLog(ctx context.Context, log *models.AdminActionLog) error
}

// UserDirectory labels user ids with display names.
type UserDirectory interface {
	GetNamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}
