package models

import "time"

// AssignmentDashboard is the combined read model for one (job, technician)
// pair: projection, clock phase, recent display history and the actions the
// caller may take next, in a single response.
type AssignmentDashboard struct {
	Assignment    *JobAssignment        `json:"assignment"`
	Current       *CurrentStatus        `json:"current,omitempty"`
	Badge         string                `json:"badge"`
	Phase         ClockPhase            `json:"clock_phase"`
	LastEvent     *ClockEvent           `json:"last_clock_event,omitempty"`
	RecentHistory []*StatusHistoryEntry `json:"recent_history"`
	// AllowedStatuses are the transitions the caller's role could request.
	AllowedStatuses []JobStatus `json:"allowed_statuses"`
	// ClockActions are the clock events legal from the current phase.
	ClockActions []ClockEventType `json:"allowed_clock_actions"`
}

// TechnicianTime is one technician's accrued time on a job, computed from
// the clock ledger. An open interval (still clocked in) accrues up to the
// query time.
type TechnicianTime struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name,omitempty"`
	WorkedSeconds int64  `json:"worked_seconds"`
	BreakSeconds  int64  `json:"break_seconds"`
	Worked        string `json:"worked"`
	Sessions      int    `json:"sessions"`
	Open          bool   `json:"open"`
}

// JobTimeSummary aggregates every technician's time on a job.
type JobTimeSummary struct {
	JobID        string            `json:"job_id"`
	Technicians  []*TechnicianTime `json:"technicians"`
	TotalSeconds int64             `json:"total_seconds"`
	Total        string            `json:"total"`
	ComputedAt   time.Time         `json:"computed_at"`
}
