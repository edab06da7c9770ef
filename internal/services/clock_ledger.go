package services

import (
	"context"
	"time"

	"field-backend/internal/apperrors"
	"field-backend/internal/models"
)

// ClockLedger wraps the clock event store with request validation and
// phase derivation. The alternation rule itself is enforced inside the
// store's serialized Record path.
type ClockLedger struct {
	Events      ClockStore
	Assignments AssignmentStore
}

func NewClockLedger(events ClockStore, assignments AssignmentStore) *ClockLedger {
	return &ClockLedger{Events: events, Assignments: assignments}
}

// Record appends a clock event after checking the assignment exists.
// Returns the phase the pair is in after the event.
func (l *ClockLedger) Record(ctx context.Context, req *models.RecordClockEventRequest) (*models.ClockEvent, models.ClockPhase, error) {
	if req.JobID == "" || req.UserID == "" {
		return nil, "", apperrors.Validationf("job id and user id are required")
	}
	if !models.ValidClockEventType(req.EventType) {
		return nil, "", apperrors.Validationf("unknown clock event type %q", req.EventType)
	}
	if _, err := l.Assignments.Get(ctx, req.JobID, req.UserID); err != nil {
		return nil, "", err
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	event := &models.ClockEvent{
		JobID:     req.JobID,
		UserID:    req.UserID,
		EventType: req.EventType,
		Notes:     req.Notes,
		EventTime: ts,
	}
	phase, err := l.Events.Record(ctx, event)
	if err != nil {
		return nil, "", err
	}
	return event, phase, nil
}

// CurrentPhase derives the phase from the latest event for the pair.
// A pair with no events is clocked_out.
func (l *ClockLedger) CurrentPhase(ctx context.Context, jobID, userID string) (models.ClockPhase, error) {
	latest, err := l.Events.Latest(ctx, jobID, userID)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return models.ClockedOut, nil
	}
	return models.PhaseAfter(latest.EventType), nil
}

// Events lists the pair's clock events oldest first.
func (l *ClockLedger) EventsForAssignment(ctx context.Context, jobID, userID string) ([]*models.ClockEvent, error) {
	if _, err := l.Assignments.Get(ctx, jobID, userID); err != nil {
		return nil, err
	}
	return l.Events.ListForAssignment(ctx, jobID, userID)
}
