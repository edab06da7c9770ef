package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"field-backend/internal/apperrors"
	"field-backend/internal/models"
)

// TransitionCoordinator applies the cross-ledger policy that a completion
// status leaves the technician clocked out. It runs after the status write
// commits, so its failures never undo the transition.
type TransitionCoordinator struct {
	Events ClockStore
}

func NewTransitionCoordinator(events ClockStore) *TransitionCoordinator {
	return &TransitionCoordinator{Events: events}
}

// OnStatusChanged records the clock events implied by a transition to
// newStatus. phaseBefore is the clock phase observed before the status
// write. Returns the events it appended, in order. Either completion while
// clocked in forces a clock-out; only the technician's own completion ends
// an open break first.
func (c *TransitionCoordinator) OnStatusChanged(ctx context.Context, jobID, technicianID string, newStatus models.JobStatus, phaseBefore models.ClockPhase, at time.Time) ([]*models.ClockEvent, error) {
	clockedIn := newStatus.IsCompletion() && phaseBefore == models.ClockedIn
	endBreak := newStatus == models.StatusTechCompleted && phaseBefore == models.OnBreak
	if !clockedIn && !endBreak {
		return nil, nil
	}

	var appended []*models.ClockEvent
	ts := at

	if endBreak {
		e := &models.ClockEvent{
			JobID:     jobID,
			UserID:    technicianID,
			EventType: models.BreakEnd,
			Notes:     "Break ended automatically on completion",
			EventTime: ts,
		}
		if _, err := c.Events.Record(ctx, e); err != nil {
			return appended, apperrors.Wrap(apperrors.KindSideEffect, "ending break on completion", err)
		}
		appended = append(appended, e)
		ts = ts.Add(time.Microsecond)
	}

	e := &models.ClockEvent{
		JobID:     jobID,
		UserID:    technicianID,
		EventType: models.ClockOut,
		Notes:     fmt.Sprintf("Auto clock-out on %s completion", newStatus.CompletionRole()),
		EventTime: ts,
	}
	if _, err := c.Events.Record(ctx, e); err != nil {
		return appended, apperrors.Wrap(apperrors.KindSideEffect, "clocking out on completion", err)
	}
	appended = append(appended, e)

	log.Printf("[Coordinator] Auto clock-out for job %s tech %s (%d events)", jobID, technicianID, len(appended))
	return appended, nil
}
