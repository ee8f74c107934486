package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout-admin-system/apperrors"
	"scout-admin-system/models"
)

func TestToggleCascadesThroughBadgeAndAward(t *testing.T) {
	f := newFixture(t)
	svc := NewManualProgressService(f.ledger, f.agg, f.rec)
	badge := f.addBadge(models.BadgeCategoryActivity)
	module := f.addModule(badge.ID, models.RuleAllRequired, 0)
	req := f.addRequirement(badge.ID, module.ID, 1, 0)

	outcome, err := svc.Toggle(f.ctx, f.member.ID, req.ID, true, "leader-1")
	require.NoError(t, err)
	require.NotNil(t, outcome.Progress)
	assert.True(t, outcome.Progress.Completed)
	require.NotNil(t, outcome.Transition)
	assert.True(t, outcome.Transition.Completed())

	awards := f.awardsFor(f.member.ID, badge.ID)
	require.Len(t, awards, 1)
	assert.Equal(t, models.AwardPending, awards[0].Status)

	outcome, err = svc.Toggle(f.ctx, f.member.ID, req.ID, false, "leader-1")
	require.NoError(t, err)
	require.NotNil(t, outcome.Transition)
	assert.True(t, outcome.Transition.Regressed())
	assert.Empty(t, f.awardsFor(f.member.ID, badge.ID))
}

func TestToggleUnknownRequirementFails(t *testing.T) {
	f := newFixture(t)
	svc := NewManualProgressService(f.ledger, f.agg, f.rec)

	_, err := svc.Toggle(f.ctx, f.member.ID, "missing", true, "leader-1")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Toggle(f.ctx, f.member.ID, "missing", false, "leader-1")
	assert.True(t, apperrors.IsNotFound(err))
}
