package repositories

import (
	"context"
	"errors"

	"field-backend/internal/apperrors"
	"field-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClockEventRepository is the append-only clock ledger. Record serializes
// per (job, user) pair with a transaction-scoped advisory lock so the
// check-latest-then-append sequence cannot interleave between two writers;
// different pairs proceed in parallel.
type ClockEventRepository struct {
	DB *pgxpool.Pool
}

func NewClockEventRepository(db *pgxpool.Pool) *ClockEventRepository {
	return &ClockEventRepository{DB: db}
}

const clockColumns = `id, job_id, user_id, event_type, event_time, COALESCE(notes, '')`

// Record validates the alternation invariant against the latest persisted
// event and appends. Returns the derived phase after the append.
func (r *ClockEventRepository) Record(ctx context.Context, e *models.ClockEvent) (models.ClockPhase, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindPersistence, "begin clock record", err)
	}
	defer tx.Rollback(ctx)

	// Lock released automatically at commit/rollback.
	_, err = tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		e.JobID+":"+e.UserID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindPersistence, "acquire clock lock", err)
	}

	var latestType models.ClockEventType
	phase := models.ClockedOut
	err = tx.QueryRow(ctx,
		`SELECT event_type FROM clock_events
         WHERE job_id=$1 AND user_id=$2
         ORDER BY event_time DESC, id DESC LIMIT 1`,
		e.JobID, e.UserID).Scan(&latestType)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.Wrap(apperrors.KindPersistence, "read latest clock event", err)
	}
	if err == nil {
		phase = models.PhaseAfter(latestType)
	}

	if !models.NextEventAllowed(phase, e.EventType) {
		return "", apperrors.Validationf("%s not allowed while %s", e.EventType, phase)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO clock_events(job_id, user_id, event_type, event_time, notes)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id`,
		e.JobID, e.UserID, e.EventType, e.EventTime, e.Notes,
	).Scan(&e.ID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindPersistence, "append clock event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", apperrors.Wrap(apperrors.KindPersistence, "commit clock event", err)
	}
	return models.PhaseAfter(e.EventType), nil
}

// Latest returns the most recent event for a pair, or nil when none exist.
func (r *ClockEventRepository) Latest(ctx context.Context, jobID, userID string) (*models.ClockEvent, error) {
	var e models.ClockEvent
	err := r.DB.QueryRow(ctx,
		`SELECT `+clockColumns+` FROM clock_events
         WHERE job_id=$1 AND user_id=$2
         ORDER BY event_time DESC, id DESC LIMIT 1`,
		jobID, userID).Scan(&e.ID, &e.JobID, &e.UserID, &e.EventType, &e.EventTime, &e.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "latest clock event", err)
	}
	return &e, nil
}

// ListForAssignment returns a pair's events oldest first, the order the
// time-summary replay expects.
func (r *ClockEventRepository) ListForAssignment(ctx context.Context, jobID, userID string) ([]*models.ClockEvent, error) {
	return r.list(ctx,
		`SELECT `+clockColumns+` FROM clock_events
         WHERE job_id=$1 AND user_id=$2
         ORDER BY event_time ASC, id ASC`, jobID, userID)
}

// ListForJob returns every technician's events on a job, oldest first.
func (r *ClockEventRepository) ListForJob(ctx context.Context, jobID string) ([]*models.ClockEvent, error) {
	return r.list(ctx,
		`SELECT `+clockColumns+` FROM clock_events
         WHERE job_id=$1
         ORDER BY event_time ASC, id ASC`, jobID)
}

func (r *ClockEventRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.ClockEvent, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "list clock events", err)
	}
	defer rows.Close()

	var out []*models.ClockEvent
	for rows.Next() {
		var e models.ClockEvent
		if err := rows.Scan(&e.ID, &e.JobID, &e.UserID, &e.EventType, &e.EventTime, &e.Notes); err != nil {
			return nil, apperrors.Wrap(apperrors.KindPersistence, "scan clock event", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
