package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhaseAfter(t *testing.T) {
	assert.Equal(t, ClockedIn, PhaseAfter(ClockIn))
	assert.Equal(t, ClockedIn, PhaseAfter(BreakEnd))
	assert.Equal(t, OnBreak, PhaseAfter(BreakStart))
	assert.Equal(t, ClockedOut, PhaseAfter(ClockOut))
}

func TestNextEventAllowed(t *testing.T) {
	cases := []struct {
		phase   ClockPhase
		event   ClockEventType
		allowed bool
	}{
		{ClockedOut, ClockIn, true},
		{ClockedOut, ClockOut, false},
		{ClockedOut, BreakStart, false},
		{ClockedOut, BreakEnd, false},
		{ClockedIn, ClockIn, false},
		{ClockedIn, ClockOut, true},
		{ClockedIn, BreakStart, true},
		{ClockedIn, BreakEnd, false},
		{OnBreak, ClockIn, false},
		{OnBreak, ClockOut, false},
		{OnBreak, BreakStart, false},
		{OnBreak, BreakEnd, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, NextEventAllowed(c.phase, c.event),
			"%s while %s", c.event, c.phase)
	}
}

func TestDerivePhase(t *testing.T) {
	assert.Equal(t, ClockedOut, DerivePhase(nil))

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	events := []*ClockEvent{
		{EventType: ClockIn, EventTime: base},
		{EventType: BreakStart, EventTime: base.Add(time.Hour)},
	}
	assert.Equal(t, OnBreak, DerivePhase(events))

	events = append(events, &ClockEvent{EventType: BreakEnd, EventTime: base.Add(2 * time.Hour)})
	assert.Equal(t, ClockedIn, DerivePhase(events))
}

func TestValidStatusAndCompletion(t *testing.T) {
	assert.True(t, ValidStatus(StatusTraveling))
	assert.False(t, ValidStatus("parked"))

	assert.True(t, StatusTechCompleted.IsCompletion())
	assert.True(t, StatusCompleted.IsCompletion())
	assert.False(t, StatusWorking.IsCompletion())
}
