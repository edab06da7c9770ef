package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"field-backend/internal/apperrors"
	"field-backend/internal/models"
	"field-backend/internal/repositories"
)

// In-memory fakes implementing the store interfaces. They mirror the
// repository semantics closely enough to exercise the services without a
// database: idempotency replay, version bumps, alternation checks.

type fakeTransitionStore struct {
	current map[string]*models.CurrentStatus
	applied map[string]bool
	history *fakeHistoryStore

	failWith error
}

func newFakeTransitionStore(history *fakeHistoryStore) *fakeTransitionStore {
	return &fakeTransitionStore{
		current: make(map[string]*models.CurrentStatus),
		applied: make(map[string]bool),
		history: history,
	}
}

func pairKey(jobID, techID string) string { return jobID + "|" + techID }

func (f *fakeTransitionStore) ApplyTransition(ctx context.Context, p repositories.ApplyTransitionParams) (*models.CurrentStatus, bool, error) {
	if f.failWith != nil {
		return nil, false, f.failWith
	}
	key := pairKey(p.JobID, p.TechnicianID)
	if f.applied[p.IdempotencyKey] {
		return f.current[key], true, nil
	}
	f.applied[p.IdempotencyKey] = true

	cur := f.current[key]
	endAt := p.Timestamp
	startAt := p.Timestamp.Add(time.Microsecond)

	if cur != nil {
		if cur.Status == p.NewStatus {
			return nil, false, apperrors.Validationf("technician is already %s on this job", p.NewStatus)
		}
		f.history.append(&models.StatusHistoryEntry{
			JobID: p.JobID, TechnicianID: p.TechnicianID,
			Status: cur.Status, Phase: models.PhaseEnd,
			Notes: "switching to " + string(p.NewStatus), CreatedAt: endAt,
		})
	}
	f.history.append(&models.StatusHistoryEntry{
		JobID: p.JobID, TechnicianID: p.TechnicianID,
		Status: p.NewStatus, Phase: models.PhaseStart,
		Notes: p.Notes, CreatedAt: startAt,
	})

	version := int64(1)
	if cur != nil {
		version = cur.Version + 1
	}
	next := &models.CurrentStatus{
		JobID: p.JobID, TechnicianID: p.TechnicianID,
		Status: p.NewStatus, Version: version, UpdatedAt: startAt,
	}
	f.current[key] = next
	return next, false, nil
}

func (f *fakeTransitionStore) Get(ctx context.Context, jobID, technicianID string) (*models.CurrentStatus, error) {
	return f.current[pairKey(jobID, technicianID)], nil
}

func (f *fakeTransitionStore) Overwrite(ctx context.Context, jobID, technicianID string, status models.JobStatus, updatedAt time.Time) error {
	key := pairKey(jobID, technicianID)
	version := int64(1)
	if cur := f.current[key]; cur != nil {
		version = cur.Version + 1
	}
	f.current[key] = &models.CurrentStatus{
		JobID: jobID, TechnicianID: technicianID,
		Status: status, Version: version, UpdatedAt: updatedAt,
	}
	return nil
}

func (f *fakeTransitionStore) Clear(ctx context.Context, jobID, technicianID string) error {
	delete(f.current, pairKey(jobID, technicianID))
	return nil
}

func (f *fakeTransitionStore) ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.CurrentStatus, error) {
	var out []*models.CurrentStatus
	for _, c := range f.current {
		if c.Status == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

type fakeHistoryStore struct {
	entries []*models.StatusHistoryEntry
	nextID  int64
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{nextID: 1}
}

func (f *fakeHistoryStore) append(e *models.StatusHistoryEntry) {
	e.ID = f.nextID
	f.nextID++
	f.entries = append(f.entries, e)
}

func (f *fakeHistoryStore) Append(ctx context.Context, e *models.StatusHistoryEntry) error {
	f.append(e)
	return nil
}

func (f *fakeHistoryStore) forPair(jobID, technicianID string, phase models.HistoryPhase) []*models.StatusHistoryEntry {
	var out []*models.StatusHistoryEntry
	for _, e := range f.entries {
		if e.JobID != jobID || e.TechnicianID != technicianID {
			continue
		}
		if phase != "" && e.Phase != phase {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakeHistoryStore) ListForAssignment(ctx context.Context, jobID, technicianID string) ([]*models.StatusHistoryEntry, error) {
	return f.forPair(jobID, technicianID, ""), nil
}

func (f *fakeHistoryStore) ListStartsForAssignment(ctx context.Context, jobID, technicianID string) ([]*models.StatusHistoryEntry, error) {
	return f.forPair(jobID, technicianID, models.PhaseStart), nil
}

func (f *fakeHistoryStore) Get(ctx context.Context, id int64) (*models.StatusHistoryEntry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("history entry %d not found", id))
}

func (f *fakeHistoryStore) LatestStart(ctx context.Context, jobID, technicianID string) (*models.StatusHistoryEntry, error) {
	starts := f.forPair(jobID, technicianID, models.PhaseStart)
	if len(starts) == 0 {
		return nil, nil
	}
	return starts[0], nil
}

func (f *fakeHistoryStore) Update(ctx context.Context, id int64, status models.JobStatus, notes string, createdAt time.Time) error {
	for _, e := range f.entries {
		if e.ID == id {
			e.Status = status
			e.Notes = notes
			e.CreatedAt = createdAt
			return nil
		}
	}
	return apperrors.New(apperrors.KindNotFound, fmt.Sprintf("history entry %d not found", id))
}

func (f *fakeHistoryStore) Delete(ctx context.Context, id int64) error {
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return apperrors.New(apperrors.KindNotFound, fmt.Sprintf("history entry %d not found", id))
}

type fakeClockStore struct {
	events []*models.ClockEvent
	nextID int64

	failWith error
}

func newFakeClockStore() *fakeClockStore {
	return &fakeClockStore{nextID: 1}
}

func (f *fakeClockStore) Record(ctx context.Context, e *models.ClockEvent) (models.ClockPhase, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	latest, _ := f.Latest(ctx, e.JobID, e.UserID)
	phase := models.ClockedOut
	if latest != nil {
		phase = models.PhaseAfter(latest.EventType)
	}
	if !models.NextEventAllowed(phase, e.EventType) {
		return "", apperrors.Validationf("%s not allowed while %s", e.EventType, phase)
	}
	e.ID = f.nextID
	f.nextID++
	f.events = append(f.events, e)
	return models.PhaseAfter(e.EventType), nil
}

func (f *fakeClockStore) Latest(ctx context.Context, jobID, userID string) (*models.ClockEvent, error) {
	var latest *models.ClockEvent
	for _, e := range f.events {
		if e.JobID != jobID || e.UserID != userID {
			continue
		}
		if latest == nil || e.EventTime.After(latest.EventTime) ||
			(e.EventTime.Equal(latest.EventTime) && e.ID > latest.ID) {
			latest = e
		}
	}
	return latest, nil
}

func (f *fakeClockStore) ListForAssignment(ctx context.Context, jobID, userID string) ([]*models.ClockEvent, error) {
	var out []*models.ClockEvent
	for _, e := range f.events {
		if e.JobID == jobID && e.UserID == userID {
			out = append(out, e)
		}
	}
	return sortedByTime(out), nil
}

func (f *fakeClockStore) ListForJob(ctx context.Context, jobID string) ([]*models.ClockEvent, error) {
	var out []*models.ClockEvent
	for _, e := range f.events {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	return sortedByTime(out), nil
}

func sortedByTime(events []*models.ClockEvent) []*models.ClockEvent {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].EventTime.Equal(events[j].EventTime) {
			return events[i].EventTime.Before(events[j].EventTime)
		}
		return events[i].ID < events[j].ID
	})
	return events
}

type fakeAssignmentStore struct {
	assignments map[string]*models.JobAssignment
}

func newFakeAssignmentStore(pairs ...[2]string) *fakeAssignmentStore {
	f := &fakeAssignmentStore{assignments: make(map[string]*models.JobAssignment)}
	for i, p := range pairs {
		f.assignments[pairKey(p[0], p[1])] = &models.JobAssignment{
			ID: int64(i + 1), JobID: p[0], TechnicianID: p[1],
			CreatedAt: time.Now().UTC(),
		}
	}
	return f
}

func (f *fakeAssignmentStore) Get(ctx context.Context, jobID, technicianID string) (*models.JobAssignment, error) {
	a, ok := f.assignments[pairKey(jobID, technicianID)]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "technician is not assigned to this job")
	}
	return a, nil
}

func (f *fakeAssignmentStore) ListForJob(ctx context.Context, jobID string) ([]*models.JobAssignment, error) {
	var out []*models.JobAssignment
	for _, a := range f.assignments {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeActionLogStore struct {
	logs []*models.AdminActionLog
}

func (f *fakeActionLogStore) CreateActionLog(ctx context.Context, log *models.AdminActionLog) error {
	f.logs = append(f.logs, log)
	return nil
}

type fakeUserDirectory struct {
	names map[string]string
}

func (f *fakeUserDirectory) GetNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range ids {
		if name, ok := f.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}
