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

// CurrentStatusRepository owns the materialized current-status projection and
// the transactional write path that keeps it consistent with the history
// ledger. The end-append, start-append, projection-update triple commits as a
// single transaction per (job, technician) pair; a version column provides
// the compare-and-set so racing writers cannot both win.
type CurrentStatusRepository struct {
	DB *pgxpool.Pool
}

func NewCurrentStatusRepository(db *pgxpool.Pool) *CurrentStatusRepository {
	return &CurrentStatusRepository{DB: db}
}

// ApplyTransitionParams is the commit unit for one accepted transition.
type ApplyTransitionParams struct {
	JobID          string
	TechnicianID   string
	NewStatus      models.JobStatus
	Notes          string
	IdempotencyKey string
	Timestamp      time.Time
}

// ApplyTransition commits one transition atomically. The returned bool is
// true when the idempotency key had already been applied and the existing
// projection was returned without writing anything.
//
// Sequence inside the transaction:
//  1. claim the idempotency key (ON CONFLICT DO NOTHING); a lost claim means
//     a replay and short-circuits to the committed projection,
//  2. read the projection row and reject a no-op transition,
//  3. append the end entry for the outgoing status (skipped when the pair
//     had no status yet) and the start entry for the incoming one,
//  4. compare-and-set the projection on its version column; zero rows
//     affected means a concurrent writer won and the whole transaction rolls
//     back with a conflict.
func (r *CurrentStatusRepository) ApplyTransition(ctx context.Context, p ApplyTransitionParams) (*models.CurrentStatus, bool, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.KindPersistence, "begin transition", err)
	}
	defer tx.Rollback(ctx)

	claimed, err := tx.Exec(ctx,
		`INSERT INTO transition_requests(idempotency_key, job_id, technician_id, status)
         VALUES($1, $2, $3, $4)
         ON CONFLICT (idempotency_key) DO NOTHING`,
		p.IdempotencyKey, p.JobID, p.TechnicianID, p.NewStatus)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.KindPersistence, "claim idempotency key", err)
	}
	if claimed.RowsAffected() == 0 {
		// Replay of an already-committed attempt.
		cur, err := scanCurrent(tx.QueryRow(ctx, selectCurrentSQL, p.JobID, p.TechnicianID))
		if err != nil {
			return nil, false, apperrors.Wrap(apperrors.KindPersistence, "read projection on replay", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, false, apperrors.Wrap(apperrors.KindPersistence, "commit replay read", err)
		}
		return cur, true, nil
	}

	cur, err := scanCurrent(tx.QueryRow(ctx, selectCurrentSQL, p.JobID, p.TechnicianID))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apperrors.Wrap(apperrors.KindPersistence, "read projection", err)
	}

	// End entries close the outgoing span a microsecond before the start
	// entry opens the new one, keeping timestamps strictly increasing.
	endAt := p.Timestamp
	startAt := p.Timestamp.Add(time.Microsecond)

	if cur != nil {
		if cur.Status == p.NewStatus {
			return nil, false, apperrors.Validationf("technician is already %s on this job", p.NewStatus)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO status_history(job_id, technician_id, status, phase, notes, created_at)
             VALUES($1, $2, $3, 'end', $4, $5)`,
			p.JobID, p.TechnicianID, cur.Status, "switching to "+string(p.NewStatus), endAt)
		if err != nil {
			return nil, false, apperrors.Wrap(apperrors.KindPersistence, "append end entry", err)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO status_history(job_id, technician_id, status, phase, notes, created_at)
         VALUES($1, $2, $3, 'start', $4, $5)`,
		p.JobID, p.TechnicianID, p.NewStatus, p.Notes, startAt)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.KindPersistence, "append start entry", err)
	}

	result := &models.CurrentStatus{
		JobID:        p.JobID,
		TechnicianID: p.TechnicianID,
		Status:       p.NewStatus,
		UpdatedAt:    startAt,
	}

	if cur != nil {
		tag, err := tx.Exec(ctx,
			`UPDATE current_status
             SET status=$3, version=version+1, updated_at=$4
             WHERE job_id=$1 AND technician_id=$2 AND version=$5`,
			p.JobID, p.TechnicianID, p.NewStatus, startAt, cur.Version)
		if err != nil {
			return nil, false, apperrors.Wrap(apperrors.KindPersistence, "update projection", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, false, apperrors.New(apperrors.KindConflict, "concurrent transition won for this assignment")
		}
		result.Version = cur.Version + 1
	} else {
		tag, err := tx.Exec(ctx,
			`INSERT INTO current_status(job_id, technician_id, status, version, updated_at)
             VALUES($1, $2, $3, 1, $4)
             ON CONFLICT (job_id, technician_id) DO NOTHING`,
			p.JobID, p.TechnicianID, p.NewStatus, startAt)
		if err != nil {
			return nil, false, apperrors.Wrap(apperrors.KindPersistence, "insert projection", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, false, apperrors.New(apperrors.KindConflict, "concurrent first transition won for this assignment")
		}
		result.Version = 1
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, apperrors.Wrap(apperrors.KindPersistence, "commit transition", err)
	}
	return result, false, nil
}

const selectCurrentSQL = `SELECT job_id, technician_id, status, version, updated_at
    FROM current_status WHERE job_id=$1 AND technician_id=$2`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCurrent(row rowScanner) (*models.CurrentStatus, error) {
	var c models.CurrentStatus
	err := row.Scan(&c.JobID, &c.TechnicianID, &c.Status, &c.Version, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Get returns the projection for a pair, or nil when the pair has never had
// a status.
func (r *CurrentStatusRepository) Get(ctx context.Context, jobID, technicianID string) (*models.CurrentStatus, error) {
	cur, err := scanCurrent(r.DB.QueryRow(ctx, selectCurrentSQL, jobID, technicianID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "read projection", err)
	}
	return cur, nil
}

// Overwrite forces the projection to match a recomputed value. Used only by
// the administrative history-correction path; bumps the version so any
// in-flight optimistic writer loses.
func (r *CurrentStatusRepository) Overwrite(ctx context.Context, jobID, technicianID string, status models.JobStatus, updatedAt time.Time) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO current_status(job_id, technician_id, status, version, updated_at)
         VALUES($1, $2, $3, 1, $4)
         ON CONFLICT (job_id, technician_id)
         DO UPDATE SET status=EXCLUDED.status, updated_at=EXCLUDED.updated_at,
                       version=current_status.version+1`,
		jobID, technicianID, status, updatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "overwrite projection", err)
	}
	return nil
}

// Clear removes the projection row. Used when an admin deletes the last
// remaining history for a pair.
func (r *CurrentStatusRepository) Clear(ctx context.Context, jobID, technicianID string) error {
	_, err := r.DB.Exec(ctx,
		`DELETE FROM current_status WHERE job_id=$1 AND technician_id=$2`,
		jobID, technicianID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "clear projection", err)
	}
	return nil
}

// ListByStatus returns every pair currently in the given status, oldest
// update first. Backs the admin review queue.
func (r *CurrentStatusRepository) ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.CurrentStatus, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT job_id, technician_id, status, version, updated_at
         FROM current_status WHERE status=$1 ORDER BY updated_at ASC`, status)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "list by status", err)
	}
	defer rows.Close()

	var out []*models.CurrentStatus
	for rows.Next() {
		var c models.CurrentStatus
		if err := rows.Scan(&c.JobID, &c.TechnicianID, &c.Status, &c.Version, &c.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.KindPersistence, "scan projection", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
