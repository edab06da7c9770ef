package models

import "time"

// ClockEventType is a raw time-tracking event.
type ClockEventType string

const (
	ClockIn    ClockEventType = "clock_in"
	ClockOut   ClockEventType = "clock_out"
	BreakStart ClockEventType = "break_start"
	BreakEnd   ClockEventType = "break_end"
)

// ValidClockEventType reports whether t is a known clock event type.
func ValidClockEventType(t ClockEventType) bool {
	switch t {
	case ClockIn, ClockOut, BreakStart, BreakEnd:
		return true
	}
	return false
}

// ClockPhase is the state derived from the most recent clock event.
type ClockPhase string

const (
	ClockedOut ClockPhase = "clocked_out"
	ClockedIn  ClockPhase = "clocked_in"
	OnBreak    ClockPhase = "on_break"
)

// ClockEvent is one append-only row in the clock ledger, scoped to a
// (job, user) pair.
type ClockEvent struct {
	ID        int64          `json:"id"`
	JobID     string         `json:"job_id"`
	UserID    string         `json:"user_id"`
	EventType ClockEventType `json:"event_type"`
	EventTime time.Time      `json:"event_time"`
	Notes     string         `json:"notes,omitempty"`
}

// PhaseAfter returns the clock phase implied by an event type.
func PhaseAfter(t ClockEventType) ClockPhase {
	switch t {
	case ClockIn, BreakEnd:
		return ClockedIn
	case BreakStart:
		return OnBreak
	default:
		return ClockedOut
	}
}

// NextEventAllowed reports whether an event of type t is a legal successor
// given the current phase. The sequence must alternate: no double clock_in,
// no double clock_out, no break outside a clocked-in span.
func NextEventAllowed(phase ClockPhase, t ClockEventType) bool {
	switch t {
	case ClockIn:
		return phase == ClockedOut
	case ClockOut:
		return phase == ClockedIn
	case BreakStart:
		return phase == ClockedIn
	case BreakEnd:
		return phase == OnBreak
	}
	return false
}

// DerivePhase replays events (oldest first) and returns the resulting phase.
// An empty ledger is clocked_out.
func DerivePhase(events []*ClockEvent) ClockPhase {
	if len(events) == 0 {
		return ClockedOut
	}
	return PhaseAfter(events[len(events)-1].EventType)
}

// RecordClockEventRequest is the write payload for the clock ledger. JobID
// and UserID come from the route and the authenticated session, not the body.
type RecordClockEventRequest struct {
	JobID     string         `json:"-"`
	UserID    string         `json:"-"`
	EventType ClockEventType `json:"event_type"`
	Notes     string         `json:"notes,omitempty"`
	Timestamp time.Time      `json:"event_time,omitempty"`
}
