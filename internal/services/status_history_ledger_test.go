package services

import (
	"context"
	"testing"
	"time"

	"field-backend/internal/apperrors"
	"field-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdmin = "33333333-3333-3333-3333-333333333333"

func newTestLedger(t *testing.T) (*StatusHistoryLedger, *fakeTransitionStore, *fakeHistoryStore, *fakeActionLogStore) {
	t.Helper()
	history := newFakeHistoryStore()
	transitions := newFakeTransitionStore(history)
	actionLogs := &fakeActionLogStore{}
	assignments := newFakeAssignmentStore([2]string{testJob, testTech})
	ledger := NewStatusHistoryLedger(history, transitions, assignments, actionLogs)
	return ledger, transitions, history, actionLogs
}

func seedTransitions(t *testing.T, transitions *fakeTransitionStore, statuses ...models.JobStatus) {
	t.Helper()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	manager := NewStatusManager(transitions,
		newFakeAssignmentStore([2]string{testJob, testTech}),
		NewClockLedger(newFakeClockStore(), newFakeAssignmentStore([2]string{testJob, testTech})),
		nil, nil)
	for i, s := range statuses {
		req := transitionReq(s, models.RoleAdmin, "seed-"+string(s))
		req.ActorRole = models.RoleTechnician
		if s == models.StatusCompleted {
			req.ActorRole = models.RoleAdmin
		}
		req.Timestamp = base.Add(time.Duration(i) * time.Hour)
		_, err := manager.Transition(context.Background(), req)
		require.NoError(t, err)
	}
}

func TestEditEntryReconcilesProjection(t *testing.T) {
	ledger, transitions, history, actionLogs := newTestLedger(t)
	ctx := context.Background()

	seedTransitions(t, transitions, models.StatusTraveling, models.StatusWorking)

	cur, _ := transitions.Get(ctx, testJob, testTech)
	require.Equal(t, models.StatusWorking, cur.Status)
	versionBefore := cur.Version

	// Edit the latest start entry to a different status.
	latest, err := history.LatestStart(ctx, testJob, testTech)
	require.NoError(t, err)
	newStatus := models.StatusWaitingOnSite
	_, err = ledger.EditEntry(ctx, testAdmin, latest.ID, &models.UpdateHistoryEntryRequest{Status: &newStatus})
	require.NoError(t, err)

	cur, _ = transitions.Get(ctx, testJob, testTech)
	assert.Equal(t, models.StatusWaitingOnSite, cur.Status, "projection must follow the edited ledger")
	assert.Greater(t, cur.Version, versionBefore, "reconcile must bump the version")

	require.Len(t, actionLogs.logs, 1)
	assert.Equal(t, models.ActionHistoryEdit, actionLogs.logs[0].ActionType)
	assert.NotNil(t, actionLogs.logs[0].OldValue)
	assert.NotNil(t, actionLogs.logs[0].NewValue)
}

func TestEditEntryRejectsReorderingTimestamp(t *testing.T) {
	ledger, transitions, history, actionLogs := newTestLedger(t)
	ctx := context.Background()

	seedTransitions(t, transitions, models.StatusTraveling, models.StatusWorking)

	// Pushing the 'working' start entry before its siblings would invert the
	// trail; the edit must be rejected outright.
	latest, err := history.LatestStart(ctx, testJob, testTech)
	require.NoError(t, err)
	require.Equal(t, models.StatusWorking, latest.Status)

	early := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	_, err = ledger.EditEntry(ctx, testAdmin, latest.ID, &models.UpdateHistoryEntryRequest{CreatedAt: &early})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	cur, _ := transitions.Get(ctx, testJob, testTech)
	assert.Equal(t, models.StatusWorking, cur.Status, "rejected edit must not touch the projection")
	kept, _ := history.Get(ctx, latest.ID)
	assert.True(t, kept.CreatedAt.Equal(latest.CreatedAt), "rejected edit must not touch the entry")
	assert.Empty(t, actionLogs.logs)
}

func TestEditEntryTimestampNudgeWithinSlot(t *testing.T) {
	ledger, transitions, history, _ := newTestLedger(t)
	ctx := context.Background()

	seedTransitions(t, transitions, models.StatusTraveling, models.StatusWorking)

	// Moving the newest start entry forward passes no sibling, so it stays
	// the newest and the projection keeps its timestamp in sync.
	latest, err := history.LatestStart(ctx, testJob, testTech)
	require.NoError(t, err)
	later := latest.CreatedAt.Add(30 * time.Minute)
	_, err = ledger.EditEntry(ctx, testAdmin, latest.ID, &models.UpdateHistoryEntryRequest{CreatedAt: &later})
	require.NoError(t, err)

	cur, _ := transitions.Get(ctx, testJob, testTech)
	assert.Equal(t, models.StatusWorking, cur.Status)
	assert.True(t, cur.UpdatedAt.Equal(later))
}

func TestDeleteEntryReconcilesProjection(t *testing.T) {
	ledger, transitions, history, actionLogs := newTestLedger(t)
	ctx := context.Background()

	seedTransitions(t, transitions, models.StatusTraveling, models.StatusWorking)

	latest, err := history.LatestStart(ctx, testJob, testTech)
	require.NoError(t, err)
	require.NoError(t, ledger.DeleteEntry(ctx, testAdmin, latest.ID))

	cur, _ := transitions.Get(ctx, testJob, testTech)
	require.NotNil(t, cur)
	assert.Equal(t, models.StatusTraveling, cur.Status, "projection falls back to the previous start entry")

	require.Len(t, actionLogs.logs, 1)
	assert.Equal(t, models.ActionHistoryDelete, actionLogs.logs[0].ActionType)
}

func TestDeleteLastStartClearsProjection(t *testing.T) {
	ledger, transitions, history, _ := newTestLedger(t)
	ctx := context.Background()

	seedTransitions(t, transitions, models.StatusTraveling)

	latest, err := history.LatestStart(ctx, testJob, testTech)
	require.NoError(t, err)
	require.NoError(t, ledger.DeleteEntry(ctx, testAdmin, latest.ID))

	cur, _ := transitions.Get(ctx, testJob, testTech)
	assert.Nil(t, cur, "no start entries left means no current status")
}

func TestAddEntryValidation(t *testing.T) {
	ledger, _, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.AddEntry(ctx, testAdmin, &models.AddHistoryEntryRequest{
		JobID: testJob, TechnicianID: testTech,
		Status: "unknown", Phase: models.PhaseStart,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = ledger.AddEntry(ctx, testAdmin, &models.AddHistoryEntryRequest{
		JobID: testJob, TechnicianID: testTech,
		Status: models.StatusWorking, Phase: "middle",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestAddEntryBackfillsAndReconciles(t *testing.T) {
	ledger, transitions, _, actionLogs := newTestLedger(t)
	ctx := context.Background()

	entry, err := ledger.AddEntry(ctx, testAdmin, &models.AddHistoryEntryRequest{
		JobID: testJob, TechnicianID: testTech,
		Status: models.StatusWorking, Phase: models.PhaseStart,
		Notes:     "backfilled by dispatch",
		CreatedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)

	cur, _ := transitions.Get(ctx, testJob, testTech)
	require.NotNil(t, cur)
	assert.Equal(t, models.StatusWorking, cur.Status)

	require.Len(t, actionLogs.logs, 1)
	assert.Equal(t, models.ActionHistoryAdd, actionLogs.logs[0].ActionType)
}

func TestEditUnknownEntry(t *testing.T) {
	ledger, _, _, _ := newTestLedger(t)

	notes := "fixed"
	_, err := ledger.EditEntry(context.Background(), testAdmin, 404, &models.UpdateHistoryEntryRequest{Notes: &notes})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}
