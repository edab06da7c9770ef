package services

import (
	"context"
	"testing"
	"time"

	"field-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTech2 = "44444444-4444-4444-4444-444444444444"

func newTestQueryService(clock *fakeClockStore) (*StatusQueryService, *fakeTransitionStore) {
	history := newFakeHistoryStore()
	transitions := newFakeTransitionStore(history)
	assignments := newFakeAssignmentStore(
		[2]string{testJob, testTech},
		[2]string{testJob, testTech2},
	)
	users := &fakeUserDirectory{names: map[string]string{
		testTech:  "Dana Reyes",
		testTech2: "Priya Nair",
	}}
	return NewStatusQueryService(transitions, history, clock, assignments, users), transitions
}

func record(t *testing.T, clock *fakeClockStore, userID string, et models.ClockEventType, at time.Time) {
	t.Helper()
	_, err := clock.Record(context.Background(), &models.ClockEvent{
		JobID: testJob, UserID: userID, EventType: et, EventTime: at,
	})
	require.NoError(t, err)
}

func TestTimeSummaryClosedSession(t *testing.T) {
	clock := newFakeClockStore()
	svc, _ := newTestQueryService(clock)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record(t, clock, testTech, models.ClockIn, base)
	record(t, clock, testTech, models.ClockOut, base.Add(2*time.Hour))

	summary, err := svc.TimeSummary(context.Background(), testJob)
	require.NoError(t, err)
	require.Len(t, summary.Technicians, 1)

	tech := summary.Technicians[0]
	assert.Equal(t, testTech, tech.UserID)
	assert.Equal(t, "Dana Reyes", tech.Name)
	assert.Equal(t, int64(2*3600), tech.WorkedSeconds)
	assert.Equal(t, int64(0), tech.BreakSeconds)
	assert.Equal(t, 1, tech.Sessions)
	assert.False(t, tech.Open)
	assert.Equal(t, int64(2*3600), summary.TotalSeconds)
	assert.Equal(t, "2h 00m", summary.Total)
}

func TestTimeSummaryBreakExcluded(t *testing.T) {
	clock := newFakeClockStore()
	svc, _ := newTestQueryService(clock)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record(t, clock, testTech, models.ClockIn, base)
	record(t, clock, testTech, models.BreakStart, base.Add(time.Hour))
	record(t, clock, testTech, models.BreakEnd, base.Add(90*time.Minute))
	record(t, clock, testTech, models.ClockOut, base.Add(3*time.Hour))

	summary, err := svc.TimeSummary(context.Background(), testJob)
	require.NoError(t, err)
	require.Len(t, summary.Technicians, 1)

	tech := summary.Technicians[0]
	// 1h before the break plus 1.5h after it; the 30m break does not count.
	assert.Equal(t, int64(150*60), tech.WorkedSeconds)
	assert.Equal(t, int64(30*60), tech.BreakSeconds)
}

func TestTimeSummaryOpenIntervalAccruesToNow(t *testing.T) {
	clock := newFakeClockStore()
	svc, _ := newTestQueryService(clock)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record(t, clock, testTech, models.ClockIn, base)

	svc.Now = func() time.Time { return base.Add(45 * time.Minute) }

	summary, err := svc.TimeSummary(context.Background(), testJob)
	require.NoError(t, err)
	require.Len(t, summary.Technicians, 1)

	tech := summary.Technicians[0]
	assert.Equal(t, int64(45*60), tech.WorkedSeconds)
	assert.True(t, tech.Open)
}

func TestTimeSummaryMultipleTechnicians(t *testing.T) {
	clock := newFakeClockStore()
	svc, _ := newTestQueryService(clock)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record(t, clock, testTech, models.ClockIn, base)
	record(t, clock, testTech, models.ClockOut, base.Add(time.Hour))
	record(t, clock, testTech2, models.ClockIn, base)
	record(t, clock, testTech2, models.ClockOut, base.Add(3*time.Hour))

	summary, err := svc.TimeSummary(context.Background(), testJob)
	require.NoError(t, err)
	require.Len(t, summary.Technicians, 2)

	// Sorted by worked time, most first.
	assert.Equal(t, testTech2, summary.Technicians[0].UserID)
	assert.Equal(t, "Priya Nair", summary.Technicians[0].Name)
	assert.Equal(t, int64(4*3600), summary.TotalSeconds)
}

func TestTimeSummaryEmptyLedger(t *testing.T) {
	clock := newFakeClockStore()
	svc, _ := newTestQueryService(clock)

	summary, err := svc.TimeSummary(context.Background(), testJob)
	require.NoError(t, err)
	assert.Empty(t, summary.Technicians)
	assert.Equal(t, int64(0), summary.TotalSeconds)
}

func TestDashboardAssemblesViews(t *testing.T) {
	clock := newFakeClockStore()
	svc, transitions := newTestQueryService(clock)
	ctx := context.Background()

	seedTransitions(t, transitions, models.StatusTraveling, models.StatusWorking)
	record(t, clock, testTech, models.ClockIn, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))

	dashboard, err := svc.Dashboard(ctx, testJob, testTech, models.RoleTechnician)
	require.NoError(t, err)
	require.NotNil(t, dashboard.Current)
	assert.Equal(t, models.StatusWorking, dashboard.Current.Status)
	assert.Equal(t, "Working", dashboard.Badge)
	assert.Equal(t, models.ClockedIn, dashboard.Phase)
	require.NotNil(t, dashboard.LastEvent)

	// Display history carries only the start entries.
	require.Len(t, dashboard.RecentHistory, 2)
	for _, e := range dashboard.RecentHistory {
		assert.Equal(t, models.PhaseStart, e.Phase)
	}

	// Clocked in and working: clock out or start a break.
	assert.Equal(t, []models.ClockEventType{models.ClockOut, models.BreakStart}, dashboard.ClockActions)
	assert.Equal(t,
		[]models.JobStatus{models.StatusTraveling, models.StatusWaitingOnSite, models.StatusTechCompleted},
		dashboard.AllowedStatuses, "current status and admin-only completion are not offered")
}

func TestDashboardBreakRequiresWorkingStatus(t *testing.T) {
	clock := newFakeClockStore()
	svc, transitions := newTestQueryService(clock)
	ctx := context.Background()

	seedTransitions(t, transitions, models.StatusTraveling)
	record(t, clock, testTech, models.ClockIn, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))

	dashboard, err := svc.Dashboard(ctx, testJob, testTech, models.RoleTechnician)
	require.NoError(t, err)
	assert.Equal(t, []models.ClockEventType{models.ClockOut}, dashboard.ClockActions,
		"break_start is only offered while working")
}

func TestDashboardBadgePerRole(t *testing.T) {
	clock := newFakeClockStore()
	svc, transitions := newTestQueryService(clock)
	ctx := context.Background()

	seedTransitions(t, transitions, models.StatusWorking, models.StatusTechCompleted)

	techView, err := svc.Dashboard(ctx, testJob, testTech, models.RoleTechnician)
	require.NoError(t, err)
	assert.Equal(t, "Completed", techView.Badge)

	adminView, err := svc.Dashboard(ctx, testJob, testTech, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "Awaiting review", adminView.Badge)
	assert.Contains(t, adminView.AllowedStatuses, models.StatusCompleted)
	assert.NotContains(t, adminView.AllowedStatuses, models.StatusTechCompleted)
}

func TestDashboardNotStarted(t *testing.T) {
	clock := newFakeClockStore()
	svc, _ := newTestQueryService(clock)

	dashboard, err := svc.Dashboard(context.Background(), testJob, testTech, models.RoleTechnician)
	require.NoError(t, err)
	assert.Nil(t, dashboard.Current)
	assert.Equal(t, "Not started", dashboard.Badge)
	assert.Equal(t, models.ClockedOut, dashboard.Phase)
	assert.Equal(t, []models.ClockEventType{models.ClockIn}, dashboard.ClockActions)
}

func TestPendingReviewListsTechCompleted(t *testing.T) {
	clock := newFakeClockStore()
	svc, transitions := newTestQueryService(clock)
	ctx := context.Background()

	seedTransitions(t, transitions, models.StatusWorking, models.StatusTechCompleted)

	pending, err := svc.PendingReview(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.StatusTechCompleted, pending[0].Status)
}
