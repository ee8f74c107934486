package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout-admin-system/apperrors"
	"scout-admin-system/models"
)

func TestRecordCompletionCountsUpToCompleted(t *testing.T) {
	f := newFixture(t)
	badge := f.addBadge(models.BadgeCategoryActivity)
	module := f.addModule(badge.ID, models.RuleAllRequired, 0)
	req := f.addRequirement(badge.ID, module.ID, 3, 0)

	for i := 1; i <= 2; i++ {
		row, edge, err := f.ledger.RecordCompletion(f.ctx, f.member.ID, req.ID, SourceMeta{Source: models.SourceManual})
		require.NoError(t, err)
		assert.False(t, edge)
		assert.False(t, row.Completed)
		assert.Equal(t, i, row.CompletionCount)
	}

	row, edge, err := f.ledger.RecordCompletion(f.ctx, f.member.ID, req.ID, SourceMeta{Source: models.SourceManual})
	require.NoError(t, err)
	assert.True(t, edge, "third completion is the false->true edge")
	assert.True(t, row.Completed)
	assert.NotNil(t, row.CompletedDate)

	// A fourth completion over-counts but produces no second edge.
	row, edge, err = f.ledger.RecordCompletion(f.ctx, f.member.ID, req.ID, SourceMeta{Source: models.SourceManual})
	require.NoError(t, err)
	assert.False(t, edge)
	assert.Equal(t, 4, row.CompletionCount)
}

func TestRevertCompletionDeletesRowAtZero(t *testing.T) {
	f := newFixture(t)
	badge := f.addBadge(models.BadgeCategoryActivity)
	module := f.addModule(badge.ID, models.RuleAllRequired, 0)
	req := f.addRequirement(badge.ID, module.ID, 2, 0)

	_, _, err := f.ledger.RecordCompletion(f.ctx, f.member.ID, req.ID, SourceMeta{Source: models.SourceManual})
	require.NoError(t, err)
	_, _, err = f.ledger.RecordCompletion(f.ctx, f.member.ID, req.ID, SourceMeta{Source: models.SourceManual})
	require.NoError(t, err)

	edge, err := f.ledger.RevertCompletion(f.ctx, f.member.ID, req.ID)
	require.NoError(t, err)
	assert.True(t, edge, "dropping below required_completions is the true->false edge")
	require.Len(t, f.progressRows(f.member.ID, req.ID), 1)

	edge, err = f.ledger.RevertCompletion(f.ctx, f.member.ID, req.ID)
	require.NoError(t, err)
	assert.False(t, edge)
	assert.Empty(t, f.progressRows(f.member.ID, req.ID), "count 0 rows must not exist")

	// Reverting with no row is a no-op.
	edge, err = f.ledger.RevertCompletion(f.ctx, f.member.ID, req.ID)
	require.NoError(t, err)
	assert.False(t, edge)
}

func TestNightsAwayGate(t *testing.T) {
	f := newFixture(t)
	badge := f.addBadge(models.BadgeCategoryActivity)
	module := f.addModule(badge.ID, models.RuleAllRequired, 0)
	req := f.addRequirement(badge.ID, module.ID, 1, 2)

	f.member.TotalNightsAway = 1
	require.NoError(t, f.store.Members.Update(f.ctx, f.member))

	_, _, err := f.ledger.RecordCompletion(f.ctx, f.member.ID, req.ID, SourceMeta{Source: models.SourceManual})
	require.Error(t, err)
	assert.True(t, apperrors.IsGatingUnmet(err))
	assert.Empty(t, f.progressRows(f.member.ID, req.ID))

	f.member.TotalNightsAway = 2
	require.NoError(t, f.store.Members.Update(f.ctx, f.member))

	row, edge, err := f.ledger.RecordCompletion(f.ctx, f.member.ID, req.ID, SourceMeta{Source: models.SourceManual})
	require.NoError(t, err)
	assert.True(t, edge)
	assert.True(t, row.Completed)
}

func TestBulkMarkCompletedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	other := f.addMember()
	badge := f.addBadge(models.BadgeCategoryActivity)
	module := f.addModule(badge.ID, models.RuleAllRequired, 0)
	reqA := f.addRequirement(badge.ID, module.ID, 1, 0)
	reqB := f.addRequirement(badge.ID, module.ID, 3, 0)

	members := []string{f.member.ID, other.ID}
	reqs := []string{reqA.ID, reqB.ID}
	meta := SourceMeta{Source: models.SourceAttendance, ProgrammeID: "prog-1"}

	first, err := f.ledger.BulkMarkCompleted(f.ctx, members, reqs, meta)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Updated)
	assert.Len(t, first.NewlyCompleted, 4)
	assert.Empty(t, first.Skipped)

	second, err := f.ledger.BulkMarkCompleted(f.ctx, members, reqs, meta)
	require.NoError(t, err)
	assert.Zero(t, second.Updated, "repeat run changes nothing")
	assert.Equal(t, 4, second.AlreadyDone)
	assert.Empty(t, second.NewlyCompleted)

	for _, memberID := range members {
		for _, req := range []models.BadgeRequirement{reqA, reqB} {
			rows := f.progressRows(memberID, req.ID)
			require.Len(t, rows, 1, "exactly one ledger row per pair")
			assert.Equal(t, req.RequiredCompletions, rows[0].CompletionCount)
			assert.True(t, rows[0].Completed)
		}
	}
}

func TestBulkMarkCompletedIsolatesPerPairFailures(t *testing.T) {
	f := newFixture(t)
	badge := f.addBadge(models.BadgeCategoryActivity)
	module := f.addModule(badge.ID, models.RuleAllRequired, 0)
	plain := f.addRequirement(badge.ID, module.ID, 1, 0)
	gated := f.addRequirement(badge.ID, module.ID, 1, 5)

	result, err := f.ledger.BulkMarkCompleted(f.ctx,
		[]string{f.member.ID, "missing-member"},
		[]string{plain.ID, gated.ID, "missing-req"},
		SourceMeta{Source: models.SourceAttendance})
	require.NoError(t, err, "per-pair failures must not abort the batch")

	// The real member completes the plain requirement; the gated one and the
	// phantom requirement are reported, as is every pair of the phantom member.
	assert.Equal(t, 1, result.Updated)
	assert.Len(t, result.Skipped, 5)

	gatingCount := 0
	notFoundCount := 0
	for _, skip := range result.Skipped {
		if apperrors.IsGatingUnmet(skip.Err) {
			gatingCount++
		}
		if apperrors.IsNotFound(skip.Err) {
			notFoundCount++
		}
	}
	assert.Equal(t, 1, gatingCount)
	assert.Equal(t, 4, notFoundCount)
}
