package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout-admin-system/apperrors"
	"scout-admin-system/models"
)

func attendanceFixture(t *testing.T) (*fixture, *AttendanceService) {
	t.Helper()
	f := newFixture(t)
	svc := NewAttendanceService(f.store, f.ledger, f.agg, f.rec)
	return f, svc
}

func markPresent(t *testing.T, f *fixture, memberID string, parentType models.ParentType, parentID string) {
	t.Helper()
	require.NoError(t, f.store.Attendance.Create(f.ctx, models.Attendance{
		ID:         uuid.NewString(),
		MemberID:   memberID,
		ParentType: parentType,
		ParentID:   parentID,
		Present:    true,
	}))
}

func linkRequirement(t *testing.T, f *fixture, parentType models.ParentType, parentID, reqID string, hike bool) {
	t.Helper()
	require.NoError(t, f.store.BadgeLinks.Create(f.ctx, models.BadgeLink{
		ID:               uuid.NewString(),
		ParentType:       parentType,
		ParentID:         parentID,
		RequirementID:    reqID,
		CountsAsHikeAway: hike,
	}))
}

func TestAwardForProgrammeCascadesToBadge(t *testing.T) {
	f, svc := attendanceFixture(t)
	badge := f.addBadge(models.BadgeCategoryActivity)
	module := f.addModule(badge.ID, models.RuleAllRequired, 0)
	req := f.addRequirement(badge.ID, module.ID, 1, 0)

	programme := models.Programme{ID: uuid.NewString(), Title: "Knots night"}
	require.NoError(t, f.store.Programmes.Create(f.ctx, programme))
	markPresent(t, f, f.member.ID, models.ParentProgramme, programme.ID)
	linkRequirement(t, f, models.ParentProgramme, programme.ID, req.ID, false)

	summary, err := svc.AwardForParent(f.ctx, models.ParentProgramme, programme.ID, "leader-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RequirementsUpdated)
	assert.Equal(t, 1, summary.BadgesCompleted)

	assert.Equal(t, models.BadgeCompleted, f.badgeStatus(f.member.ID, badge.ID))
	awards := f.awardsFor(f.member.ID, badge.ID)
	require.Len(t, awards, 1)
	assert.Equal(t, models.AwardPending, awards[0].Status)

	rows := f.progressRows(f.member.ID, req.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, models.SourceAttendance, rows[0].Source)
	assert.Equal(t, programme.ID, rows[0].ProgrammeID)
}

func TestAwardForEventAppliesOutdoorSideEffectsOnce(t *testing.T) {
	f, svc := attendanceFixture(t)
	badge := f.addBadge(models.BadgeCategoryActivity)
	module := f.addModule(badge.ID, models.RuleAllRequired, 0)
	req := f.addRequirement(badge.ID, module.ID, 1, 0)

	event := models.Event{ID: uuid.NewString(), Title: "Summer camp", Nights: 2}
	require.NoError(t, f.store.Events.Create(f.ctx, event))
	markPresent(t, f, f.member.ID, models.ParentEvent, event.ID)
	linkRequirement(t, f, models.ParentEvent, event.ID, req.ID, true)

	summary, err := svc.AwardForParent(f.ctx, models.ParentEvent, event.ID, "leader-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NightsAwarded)
	assert.Equal(t, 1, summary.HikesAwarded)
	assert.Equal(t, 1, summary.BadgesCompleted)

	member, err := f.store.Members.Get(f.ctx, f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, member.TotalNightsAway)
	assert.Equal(t, 1, member.TotalHikesAway)

	// Re-running the whole batch converges: no new rows, no extra counters.
	summary, err = svc.AwardForParent(f.ctx, models.ParentEvent, event.ID, "leader-1")
	require.NoError(t, err)
	assert.Zero(t, summary.RequirementsUpdated)
	assert.Zero(t, summary.NightsAwarded)
	assert.Zero(t, summary.HikesAwarded)
	assert.Zero(t, summary.BadgesCompleted)

	member, err = f.store.Members.Get(f.ctx, f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, member.TotalNightsAway)
	assert.Equal(t, 1, member.TotalHikesAway)
	assert.Len(t, f.awardsFor(f.member.ID, badge.ID), 1)
}

func TestAwardForParentReconcilesPairsCommittedByPriorRun(t *testing.T) {
	f, svc := attendanceFixture(t)
	badge := f.addBadge(models.BadgeCategoryActivity)
	module := f.addModule(badge.ID, models.RuleAllRequired, 0)
	req := f.addRequirement(badge.ID, module.ID, 1, 0)

	programme := models.Programme{ID: uuid.NewString(), Title: "Pioneering"}
	require.NoError(t, f.store.Programmes.Create(f.ctx, programme))
	markPresent(t, f, f.member.ID, models.ParentProgramme, programme.ID)
	linkRequirement(t, f, models.ParentProgramme, programme.ID, req.ID, false)

	// A prior run committed the ledger write and died before the badge
	// cascade: the completed row exists, no badge row, no award.
	now := time.Now()
	require.NoError(t, f.store.RequirementProgress.Create(f.ctx, models.MemberRequirementProgress{
		ID:              uuid.NewString(),
		MemberID:        f.member.ID,
		RequirementID:   req.ID,
		BadgeID:         badge.ID,
		ModuleID:        module.ID,
		CompletionCount: 1,
		Completed:       true,
		CompletedDate:   &now,
		Source:          models.SourceAttendance,
	}))

	summary, err := svc.AwardForParent(f.ctx, models.ParentProgramme, programme.ID, "leader-1")
	require.NoError(t, err)
	assert.Zero(t, summary.RequirementsUpdated)
	assert.Equal(t, 1, summary.AlreadyDone)
	assert.Equal(t, 1, summary.BadgesCompleted, "re-run must finish the interrupted cascade")

	assert.Equal(t, models.BadgeCompleted, f.badgeStatus(f.member.ID, badge.ID))
	awards := f.awardsFor(f.member.ID, badge.ID)
	require.Len(t, awards, 1)
	assert.Equal(t, models.AwardPending, awards[0].Status)
}

func TestAwardForParentReportsGatedPairs(t *testing.T) {
	f, svc := attendanceFixture(t)
	badge := f.addBadge(models.BadgeCategoryActivity)
	module := f.addModule(badge.ID, models.RuleAllRequired, 0)
	gated := f.addRequirement(badge.ID, module.ID, 1, 4)

	programme := models.Programme{ID: uuid.NewString(), Title: "Camp planning"}
	require.NoError(t, f.store.Programmes.Create(f.ctx, programme))
	markPresent(t, f, f.member.ID, models.ParentProgramme, programme.ID)
	linkRequirement(t, f, models.ParentProgramme, programme.ID, gated.ID, false)

	summary, err := svc.AwardForParent(f.ctx, models.ParentProgramme, programme.ID, "leader-1")
	require.NoError(t, err, "gated pairs are reported, not fatal")
	assert.Zero(t, summary.RequirementsUpdated)
	require.Len(t, summary.Skipped, 1)
	assert.True(t, apperrors.IsGatingUnmet(summary.Skipped[0].Err))
}

func TestAwardForParentUnknownParent(t *testing.T) {
	f, svc := attendanceFixture(t)

	_, err := svc.AwardForParent(f.ctx, models.ParentProgramme, "missing", "leader-1")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.AwardForParent(f.ctx, "meeting", "whatever", "leader-1")
	require.Error(t, err)
	assert.False(t, apperrors.IsNotFound(err))
}
