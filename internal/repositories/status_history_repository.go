package repositories

import (
	"context"
	"errors"
	"time"

	"field-backend/internal/apperrors"
	"field-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusHistoryRepository reads and corrects the append-only status audit
// trail. Normal writes go through CurrentStatusRepository.ApplyTransition so
// the projection can never drift from history; this repository only appends
// on the administrative path.
type StatusHistoryRepository struct {
	DB *pgxpool.Pool
}

func NewStatusHistoryRepository(db *pgxpool.Pool) *StatusHistoryRepository {
	return &StatusHistoryRepository{DB: db}
}

const historyColumns = `id, job_id, technician_id, status, phase, COALESCE(notes, ''), created_at`

func scanHistory(row rowScanner) (*models.StatusHistoryEntry, error) {
	var e models.StatusHistoryEntry
	err := row.Scan(&e.ID, &e.JobID, &e.TechnicianID, &e.Status, &e.Phase, &e.Notes, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Append inserts one entry. Administrative additions only; accepted
// transitions write their pairs inside the transition transaction.
func (r *StatusHistoryRepository) Append(ctx context.Context, e *models.StatusHistoryEntry) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO status_history(job_id, technician_id, status, phase, notes, created_at)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id`,
		e.JobID, e.TechnicianID, e.Status, e.Phase, e.Notes, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "append history entry", err)
	}
	return nil
}

// ListForAssignment returns the full audit trail for a pair, most recent
// first.
func (r *StatusHistoryRepository) ListForAssignment(ctx context.Context, jobID, technicianID string) ([]*models.StatusHistoryEntry, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+historyColumns+` FROM status_history
         WHERE job_id=$1 AND technician_id=$2
         ORDER BY created_at DESC, id DESC`, jobID, technicianID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "list history", err)
	}
	defer rows.Close()
	return collectHistory(rows)
}

// ListStartsForAssignment returns only the start entries, most recent first.
// End entries exist purely for audit completeness and are hidden from
// display callers.
func (r *StatusHistoryRepository) ListStartsForAssignment(ctx context.Context, jobID, technicianID string) ([]*models.StatusHistoryEntry, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+historyColumns+` FROM status_history
         WHERE job_id=$1 AND technician_id=$2 AND phase='start'
         ORDER BY created_at DESC, id DESC`, jobID, technicianID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "list start entries", err)
	}
	defer rows.Close()
	return collectHistory(rows)
}

func collectHistory(rows pgx.Rows) ([]*models.StatusHistoryEntry, error) {
	var out []*models.StatusHistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindPersistence, "scan history entry", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns a single entry by id.
func (r *StatusHistoryRepository) Get(ctx context.Context, id int64) (*models.StatusHistoryEntry, error) {
	e, err := scanHistory(r.DB.QueryRow(ctx,
		`SELECT `+historyColumns+` FROM status_history WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "history entry not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "get history entry", err)
	}
	return e, nil
}

// LatestStart returns the most recent start entry for a pair, or nil when
// the pair has no history. The projection must always match this entry.
func (r *StatusHistoryRepository) LatestStart(ctx context.Context, jobID, technicianID string) (*models.StatusHistoryEntry, error) {
	e, err := scanHistory(r.DB.QueryRow(ctx,
		`SELECT `+historyColumns+` FROM status_history
         WHERE job_id=$1 AND technician_id=$2 AND phase='start'
         ORDER BY created_at DESC, id DESC LIMIT 1`, jobID, technicianID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "latest start entry", err)
	}
	return e, nil
}

// Update rewrites an entry's status, notes and timestamp. Admin-only; the
// service layer validates ordering before calling.
func (r *StatusHistoryRepository) Update(ctx context.Context, id int64, status models.JobStatus, notes string, createdAt time.Time) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE status_history SET status=$2, notes=$3, created_at=$4 WHERE id=$1`,
		id, status, notes, createdAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "update history entry", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindNotFound, "history entry not found")
	}
	return nil
}

// Delete removes an entry. Admin-only.
func (r *StatusHistoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM status_history WHERE id=$1`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "delete history entry", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindNotFound, "history entry not found")
	}
	return nil
}
