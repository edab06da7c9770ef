package services

import (
	"context"
	"log"
	"strings"
	"time"

	"field-backend/internal/apperrors"
	"field-backend/internal/models"
	"field-backend/internal/notify"
	"field-backend/internal/repositories"
)

// StatusManager owns the per-assignment status lifecycle. Every transition
// goes through it: validation, role gating, the compare-and-swap write, and
// the post-commit side effects.
type StatusManager struct {
	Transitions TransitionStore
	Assignments AssignmentStore
	Clock       *ClockLedger
	Coordinator *TransitionCoordinator
	Notifier    notify.Notifier
}

func NewStatusManager(transitions TransitionStore, assignments AssignmentStore, clock *ClockLedger, coordinator *TransitionCoordinator, notifier notify.Notifier) *StatusManager {
	return &StatusManager{
		Transitions: transitions,
		Assignments: assignments,
		Clock:       clock,
		Coordinator: coordinator,
		Notifier:    notifier,
	}
}

// Transition applies a status change for an assignment. The projection write
// and both history entries commit atomically; side effects run after commit
// and surface as a warning on failure rather than rolling the status back.
func (s *StatusManager) Transition(ctx context.Context, req *models.TransitionRequest) (*models.TransitionResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	if _, err := s.Assignments.Get(ctx, req.JobID, req.TechnicianID); err != nil {
		return nil, err
	}

	// The clock phase is captured before the write so the coordinator can
	// decide on break handling from the state the technician saw.
	phaseBefore, err := s.Clock.CurrentPhase(ctx, req.JobID, req.TechnicianID)
	if err != nil {
		return nil, err
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	current, replayed, err := s.Transitions.ApplyTransition(ctx, repositories.ApplyTransitionParams{
		JobID:          req.JobID,
		TechnicianID:   req.TechnicianID,
		NewStatus:      req.NewStatus,
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
		Timestamp:      ts,
	})
	if err != nil {
		return nil, err
	}

	result := &models.TransitionResult{Current: current, Replayed: replayed}
	if replayed {
		return result, nil
	}

	if s.Coordinator != nil {
		events, coordErr := s.Coordinator.OnStatusChanged(ctx, req.JobID, req.TechnicianID, req.NewStatus, phaseBefore, ts)
		result.ClockEvents = events
		if coordErr != nil {
			log.Printf("[StatusManager] Side effect failed for job %s tech %s: %v", req.JobID, req.TechnicianID, coordErr)
			result.Warning = "status updated but automatic clock-out failed; clock out manually"
		}
	}

	if s.Notifier != nil {
		if err := s.Notifier.StatusChanged(ctx, req.JobID, req.TechnicianID, string(req.NewStatus)); err != nil {
			log.Printf("[StatusManager] Notify failed: %v", err)
		}
	}

	return result, nil
}

// Current returns the projection row, or nil when the assignment has no
// active status.
func (s *StatusManager) Current(ctx context.Context, jobID, technicianID string) (*models.CurrentStatus, error) {
	if _, err := s.Assignments.Get(ctx, jobID, technicianID); err != nil {
		return nil, err
	}
	return s.Transitions.Get(ctx, jobID, technicianID)
}

func (s *StatusManager) validate(req *models.TransitionRequest) error {
	if req.JobID == "" || req.TechnicianID == "" {
		return apperrors.Validationf("job id and technician id are required")
	}
	if !models.ValidStatus(req.NewStatus) {
		return apperrors.Validationf("unknown status %q", req.NewStatus)
	}
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return apperrors.Validationf("idempotency key is required")
	}
	switch req.NewStatus {
	case models.StatusTechCompleted:
		if req.ActorRole != models.RoleTechnician {
			return apperrors.Validationf("only a technician can mark a job tech_completed")
		}
	case models.StatusCompleted:
		if req.ActorRole != models.RoleAdmin {
			return apperrors.Validationf("only an admin can mark a job completed")
		}
	}
	return nil
}
