package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"field-backend/internal/apperrors"
	"field-backend/internal/models"
)

// StatusHistoryLedger exposes the audit trail and the privileged correction
// path. Normal transitions never touch this service; their history entries
// are written inside the transition transaction.
type StatusHistoryLedger struct {
	History     HistoryStore
	Transitions TransitionStore
	Assignments AssignmentStore
	ActionLogs  ActionLogStore
}

func NewStatusHistoryLedger(history HistoryStore, transitions TransitionStore, assignments AssignmentStore, actionLogs ActionLogStore) *StatusHistoryLedger {
	return &StatusHistoryLedger{
		History:     history,
		Transitions: transitions,
		Assignments: assignments,
		ActionLogs:  actionLogs,
	}
}

// List returns every history entry for the assignment, newest first.
func (l *StatusHistoryLedger) List(ctx context.Context, jobID, technicianID string) ([]*models.StatusHistoryEntry, error) {
	if _, err := l.Assignments.Get(ctx, jobID, technicianID); err != nil {
		return nil, err
	}
	return l.History.ListForAssignment(ctx, jobID, technicianID)
}

// ListStarts returns only the start entries, the rows dashboards treat as
// "status changed to X at T".
func (l *StatusHistoryLedger) ListStarts(ctx context.Context, jobID, technicianID string) ([]*models.StatusHistoryEntry, error) {
	if _, err := l.Assignments.Get(ctx, jobID, technicianID); err != nil {
		return nil, err
	}
	return l.History.ListStartsForAssignment(ctx, jobID, technicianID)
}

// AddEntry inserts a manual entry on behalf of an admin and reconciles the
// projection afterwards.
func (l *StatusHistoryLedger) AddEntry(ctx context.Context, adminID string, req *models.AddHistoryEntryRequest) (*models.StatusHistoryEntry, error) {
	if req.JobID == "" || req.TechnicianID == "" {
		return nil, apperrors.Validationf("job id and technician id are required")
	}
	if !models.ValidStatus(req.Status) {
		return nil, apperrors.Validationf("unknown status %q", req.Status)
	}
	if req.Phase != models.PhaseStart && req.Phase != models.PhaseEnd {
		return nil, apperrors.Validationf("phase must be start or end")
	}
	if _, err := l.Assignments.Get(ctx, req.JobID, req.TechnicianID); err != nil {
		return nil, err
	}

	ts := req.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	entry := &models.StatusHistoryEntry{
		JobID:        req.JobID,
		TechnicianID: req.TechnicianID,
		Status:       req.Status,
		Phase:        req.Phase,
		Notes:        req.Notes,
		CreatedAt:    ts,
	}
	if err := l.History.Append(ctx, entry); err != nil {
		return nil, err
	}
	if err := l.reconcile(ctx, req.JobID, req.TechnicianID); err != nil {
		return nil, err
	}

	l.logAction(ctx, adminID, models.ActionHistoryAdd, &entry.ID,
		fmt.Sprintf("Added %s entry %q for job %s tech %s", entry.Phase, entry.Status, entry.JobID, entry.TechnicianID),
		nil, marshalEntry(entry))
	return entry, nil
}

// EditEntry applies an admin correction to an existing entry. Only the
// fields present in req change; the projection is recomputed afterwards.
func (l *StatusHistoryLedger) EditEntry(ctx context.Context, adminID string, id int64, req *models.UpdateHistoryEntryRequest) (*models.StatusHistoryEntry, error) {
	old, err := l.History.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *old
	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			return nil, apperrors.Validationf("unknown status %q", *req.Status)
		}
		updated.Status = *req.Status
	}
	if req.Notes != nil {
		updated.Notes = *req.Notes
	}
	if req.CreatedAt != nil {
		updated.CreatedAt = *req.CreatedAt
	}

	if !updated.CreatedAt.Equal(old.CreatedAt) {
		if err := l.validateTimestampEdit(ctx, old, updated.CreatedAt); err != nil {
			return nil, err
		}
	}

	if err := l.History.Update(ctx, id, updated.Status, updated.Notes, updated.CreatedAt); err != nil {
		return nil, err
	}
	if err := l.reconcile(ctx, old.JobID, old.TechnicianID); err != nil {
		return nil, err
	}

	l.logAction(ctx, adminID, models.ActionHistoryEdit, &id,
		fmt.Sprintf("Edited history entry %d for job %s tech %s", id, old.JobID, old.TechnicianID),
		marshalEntry(old), marshalEntry(&updated))
	return &updated, nil
}

// DeleteEntry removes an entry and reconciles the projection. Deleting the
// last start entry clears the projection entirely.
func (l *StatusHistoryLedger) DeleteEntry(ctx context.Context, adminID string, id int64) error {
	old, err := l.History.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := l.History.Delete(ctx, id); err != nil {
		return err
	}
	if err := l.reconcile(ctx, old.JobID, old.TechnicianID); err != nil {
		return err
	}

	l.logAction(ctx, adminID, models.ActionHistoryDelete, &id,
		fmt.Sprintf("Deleted history entry %d for job %s tech %s", id, old.JobID, old.TechnicianID),
		marshalEntry(old), nil)
	return nil
}

// validateTimestampEdit rejects a created_at that would move the entry past
// a sibling for the same assignment. A correction may nudge a timestamp
// inside its slot; it must not rewrite the order of the trail.
func (l *StatusHistoryLedger) validateTimestampEdit(ctx context.Context, old *models.StatusHistoryEntry, ts time.Time) error {
	siblings, err := l.History.ListForAssignment(ctx, old.JobID, old.TechnicianID)
	if err != nil {
		return err
	}
	var older, newer *models.StatusHistoryEntry
	for _, s := range siblings {
		if s.ID == old.ID {
			continue
		}
		if s.CreatedAt.After(old.CreatedAt) {
			if newer == nil || s.CreatedAt.Before(newer.CreatedAt) {
				newer = s
			}
		} else if older == nil || s.CreatedAt.After(older.CreatedAt) {
			older = s
		}
	}
	if older != nil && !ts.After(older.CreatedAt) {
		return apperrors.Validationf("created_at would move entry %d before entry %d", old.ID, older.ID)
	}
	if newer != nil && !ts.Before(newer.CreatedAt) {
		return apperrors.Validationf("created_at would move entry %d past entry %d", old.ID, newer.ID)
	}
	return nil
}

// reconcile recomputes the projection from the latest surviving start entry
// so corrections keep current_status derivable from the ledger.
func (l *StatusHistoryLedger) reconcile(ctx context.Context, jobID, technicianID string) error {
	latest, err := l.History.LatestStart(ctx, jobID, technicianID)
	if err != nil {
		return err
	}
	if latest == nil {
		return l.Transitions.Clear(ctx, jobID, technicianID)
	}
	return l.Transitions.Overwrite(ctx, jobID, technicianID, latest.Status, latest.CreatedAt)
}

func (l *StatusHistoryLedger) logAction(ctx context.Context, adminID, action string, targetID *int64, description string, oldValue, newValue *string) {
	if l.ActionLogs == nil {
		return
	}
	entry := &models.AdminActionLog{
		AdminUserID: adminID,
		ActionType:  action,
		TargetType:  "status_history",
		TargetID:    targetID,
		Description: description,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := l.ActionLogs.CreateActionLog(ctx, entry); err != nil {
		log.Printf("[HistoryLedger] Action log write failed: %v", err)
	}
}

func marshalEntry(e *models.StatusHistoryEntry) *string {
	b, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
