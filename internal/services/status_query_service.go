package services

import (
	"context"
	"sort"
	"time"

	"field-backend/internal/models"
	"field-backend/internal/timeutil"
)

// StatusQueryService serves the read-only dashboard and reporting views.
// It never writes; everything here is derived from the ledgers and the
// projection.
type StatusQueryService struct {
	Transitions TransitionStore
	History     HistoryStore
	Events      ClockStore
	Assignments AssignmentStore
	Users       UserDirectory

	// Now is swapped in tests to pin open-interval accrual.
	Now func() time.Time
}

func NewStatusQueryService(transitions TransitionStore, history HistoryStore, events ClockStore, assignments AssignmentStore, users UserDirectory) *StatusQueryService {
	return &StatusQueryService{
		Transitions: transitions,
		History:     history,
		Events:      events,
		Assignments: assignments,
		Users:       users,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

const dashboardHistoryLimit = 10

// Dashboard assembles the combined view for one assignment as seen by a
// caller with the given role. History is start entries only; end entries
// exist for audit and stay out of display reads.
func (s *StatusQueryService) Dashboard(ctx context.Context, jobID, technicianID string, role models.Role) (*models.AssignmentDashboard, error) {
	assignment, err := s.Assignments.Get(ctx, jobID, technicianID)
	if err != nil {
		return nil, err
	}
	current, err := s.Transitions.Get(ctx, jobID, technicianID)
	if err != nil {
		return nil, err
	}
	last, err := s.Events.Latest(ctx, jobID, technicianID)
	if err != nil {
		return nil, err
	}
	phase := models.ClockedOut
	if last != nil {
		phase = models.PhaseAfter(last.EventType)
	}
	history, err := s.History.ListStartsForAssignment(ctx, jobID, technicianID)
	if err != nil {
		return nil, err
	}
	if len(history) > dashboardHistoryLimit {
		history = history[:dashboardHistoryLimit]
	}

	return &models.AssignmentDashboard{
		Assignment:      assignment,
		Current:         current,
		Badge:           statusBadge(current, role),
		Phase:           phase,
		LastEvent:       last,
		RecentHistory:   history,
		AllowedStatuses: allowedStatuses(current, role),
		ClockActions:    allowedClockActions(phase, current),
	}, nil
}

// statusBadge is the label dashboards render for the pair. tech_completed
// reads differently per viewer: the technician is done, the admin still
// owes a review.
func statusBadge(current *models.CurrentStatus, role models.Role) string {
	if current == nil {
		return "Not started"
	}
	switch current.Status {
	case models.StatusTraveling:
		return "Traveling"
	case models.StatusWorking:
		return "Working"
	case models.StatusWaitingOnSite:
		return "Waiting on site"
	case models.StatusTechCompleted:
		if role == models.RoleAdmin {
			return "Awaiting review"
		}
		return "Completed"
	case models.StatusCompleted:
		return "Completed"
	}
	return string(current.Status)
}

// allowedStatuses lists the transitions the caller could request next:
// everything the role may set minus the pair's current status, since a
// no-op transition is rejected.
func allowedStatuses(current *models.CurrentStatus, role models.Role) []models.JobStatus {
	options := []models.JobStatus{models.StatusTraveling, models.StatusWorking, models.StatusWaitingOnSite}
	switch role {
	case models.RoleTechnician:
		options = append(options, models.StatusTechCompleted)
	case models.RoleAdmin:
		options = append(options, models.StatusCompleted)
	}
	var out []models.JobStatus
	for _, st := range options {
		if current != nil && st == current.Status {
			continue
		}
		out = append(out, st)
	}
	return out
}

// allowedClockActions filters the alternation-legal next events. Starting a
// break additionally requires the pair to be working.
func allowedClockActions(phase models.ClockPhase, current *models.CurrentStatus) []models.ClockEventType {
	var out []models.ClockEventType
	for _, et := range []models.ClockEventType{models.ClockIn, models.ClockOut, models.BreakStart, models.BreakEnd} {
		if !models.NextEventAllowed(phase, et) {
			continue
		}
		if et == models.BreakStart && (current == nil || current.Status != models.StatusWorking) {
			continue
		}
		out = append(out, et)
	}
	return out
}

// PendingReview lists assignments sitting in tech_completed, the admin
// queue for final sign-off.
func (s *StatusQueryService) PendingReview(ctx context.Context) ([]*models.CurrentStatus, error) {
	return s.Transitions.ListByStatus(ctx, models.StatusTechCompleted)
}

// TimeSummary computes accrued work and break time per technician on a job
// from the clock ledger. Work accrues between clock_in and the next
// clock_out or break_start; break_end resumes work. A technician still
// clocked in accrues up to now.
func (s *StatusQueryService) TimeSummary(ctx context.Context, jobID string) (*models.JobTimeSummary, error) {
	events, err := s.Events.ListForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	now := s.Now()

	type acc struct {
		worked     time.Duration
		breaks     time.Duration
		sessions   int
		openSince  time.Time
		breakSince time.Time
		working    bool
		onBreak    bool
	}
	byUser := make(map[string]*acc)
	var order []string

	for _, e := range events {
		a := byUser[e.UserID]
		if a == nil {
			a = &acc{}
			byUser[e.UserID] = a
			order = append(order, e.UserID)
		}
		switch e.EventType {
		case models.ClockIn:
			if !a.working {
				a.working = true
				a.openSince = e.EventTime
				a.sessions++
			}
		case models.BreakStart:
			if a.working {
				a.worked += e.EventTime.Sub(a.openSince)
				a.working = false
			}
			a.onBreak = true
			a.breakSince = e.EventTime
		case models.BreakEnd:
			if a.onBreak {
				a.breaks += e.EventTime.Sub(a.breakSince)
				a.onBreak = false
			}
			if !a.working {
				a.working = true
				a.openSince = e.EventTime
			}
		case models.ClockOut:
			if a.working {
				a.worked += e.EventTime.Sub(a.openSince)
				a.working = false
			}
			if a.onBreak {
				a.breaks += e.EventTime.Sub(a.breakSince)
				a.onBreak = false
			}
		}
	}

	names := map[string]string{}
	if s.Users != nil && len(order) > 0 {
		if m, err := s.Users.GetNamesByIDs(ctx, order); err == nil {
			names = m
		}
	}

	summary := &models.JobTimeSummary{JobID: jobID, ComputedAt: now}
	var total time.Duration
	for _, userID := range order {
		a := byUser[userID]
		worked := a.worked
		if a.working {
			worked += now.Sub(a.openSince)
		}
		breaks := a.breaks
		if a.onBreak {
			breaks += now.Sub(a.breakSince)
		}
		total += worked
		summary.Technicians = append(summary.Technicians, &models.TechnicianTime{
			UserID:        userID,
			Name:          names[userID],
			WorkedSeconds: timeutil.Seconds(worked),
			BreakSeconds:  timeutil.Seconds(breaks),
			Worked:        timeutil.FormatDuration(worked),
			Sessions:      a.sessions,
			Open:          a.working || a.onBreak,
		})
	}
	sort.Slice(summary.Technicians, func(i, j int) bool {
		return summary.Technicians[i].WorkedSeconds > summary.Technicians[j].WorkedSeconds
	})
	summary.TotalSeconds = timeutil.Seconds(total)
	summary.Total = timeutil.FormatDuration(total)
	return summary, nil
}
