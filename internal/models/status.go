package models

import "time"

// JobStatus is what a technician is currently doing on a job.
type JobStatus string

const (
	StatusTraveling     JobStatus = "traveling"
	StatusWorking       JobStatus = "working"
	StatusWaitingOnSite JobStatus = "waiting_on_site"
	StatusTechCompleted JobStatus = "tech_completed"
	StatusCompleted     JobStatus = "completed"
)

// ValidStatus reports whether s is one of the known job statuses.
func ValidStatus(s JobStatus) bool {
	switch s {
	case StatusTraveling, StatusWorking, StatusWaitingOnSite, StatusTechCompleted, StatusCompleted:
		return true
	}
	return false
}

// IsCompletion reports whether s marks the assignment's work as done.
func (s JobStatus) IsCompletion() bool {
	return s == StatusTechCompleted || s == StatusCompleted
}

// CompletionRole returns whose sign-off a completion status records:
// tech_completed is the technician's, completed the admin's. Empty for
// non-completion statuses.
func (s JobStatus) CompletionRole() Role {
	switch s {
	case StatusTechCompleted:
		return RoleTechnician
	case StatusCompleted:
		return RoleAdmin
	}
	return ""
}

// HistoryPhase marks a status_history row as opening or closing a status span.
type HistoryPhase string

const (
	PhaseStart HistoryPhase = "start"
	PhaseEnd   HistoryPhase = "end"
)

// CurrentStatus is the materialized "what is this technician doing right now"
// projection for a (job, technician) pair. It is always derivable by replaying
// the start entries of status_history; Version is the optimistic-concurrency
// token compared on every write.
type CurrentStatus struct {
	JobID        string    `json:"job_id"`
	TechnicianID string    `json:"technician_id"`
	Status       JobStatus `json:"status"`
	Version      int64     `json:"version"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StatusHistoryEntry is one append-only audit record. Every accepted
// transition writes an end entry for the outgoing status (absent on the very
// first transition) followed by a start entry for the incoming one.
type StatusHistoryEntry struct {
	ID           int64        `json:"id"`
	JobID        string       `json:"job_id"`
	TechnicianID string       `json:"technician_id"`
	Status       JobStatus    `json:"status"`
	Phase        HistoryPhase `json:"phase"`
	Notes        string       `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// TransitionRequest asks StatusManager to move a (job, technician) pair to a
// new status. IdempotencyKey is client-generated per attempt; replaying the
// same key never produces a second history pair.
type TransitionRequest struct {
	JobID          string    `json:"job_id"`
	TechnicianID   string    `json:"technician_id"`
	NewStatus      JobStatus `json:"status"`
	ActorRole      Role      `json:"-"`
	Notes          string    `json:"notes,omitempty"`
	IdempotencyKey string    `json:"idempotency_key"`
	Timestamp      time.Time `json:"-"`
}

// TransitionResult is the outcome of an accepted (or replayed) transition.
type TransitionResult struct {
	Current *CurrentStatus `json:"current"`
	// Replayed is set when the idempotency key had already been applied and
	// no new history was written.
	Replayed bool `json:"replayed,omitempty"`
	// ClockEvents are the compensating events the coordinator issued.
	ClockEvents []*ClockEvent `json:"clock_events,omitempty"`
	// Warning carries a coordinator side-effect failure that did not revert
	// the committed transition.
	Warning string `json:"warning,omitempty"`
}

// AddHistoryEntryRequest is the admin payload for inserting a manual
// history entry, for example to backfill a span the technician forgot.
type AddHistoryEntryRequest struct {
	JobID        string       `json:"job_id"`
	TechnicianID string       `json:"technician_id"`
	Status       JobStatus    `json:"status"`
	Phase        HistoryPhase `json:"phase"`
	Notes        string       `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// UpdateHistoryEntryRequest is the admin correction payload.
type UpdateHistoryEntryRequest struct {
	Status    *JobStatus `json:"status,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
