package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"scout-admin-system/models"
	"scout-admin-system/store"
)

// fixture wires the engine against the in-memory store with one member
// already present.
type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *store.Store
	ledger *LedgerService
	agg    *BadgeAggregator
	rec    *AwardReconciler
	member models.Member
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  s,
		ledger: NewLedgerService(s),
		agg:    NewBadgeAggregator(s),
		rec:    NewAwardReconciler(s),
	}
	f.member = f.addMember()
	return f
}

func (f *fixture) addMember() models.Member {
	f.t.Helper()
	member := models.Member{ID: uuid.NewString(), FirstName: "Alex", Active: true}
	require.NoError(f.t, f.store.Members.Create(f.ctx, member))
	return member
}

func (f *fixture) addBadge(category models.BadgeCategory) models.BadgeDefinition {
	f.t.Helper()
	badge := models.BadgeDefinition{
		ID:       uuid.NewString(),
		Slug:     uuid.NewString(),
		Name:     "Test Badge",
		Section:  models.SectionAll,
		Category: category,
		Active:   true,
	}
	require.NoError(f.t, f.store.Badges.Create(f.ctx, badge))
	return badge
}

func (f *fixture) addModule(badgeID string, rule models.ModuleRule, requiredCount int) models.BadgeModule {
	f.t.Helper()
	module := models.BadgeModule{
		ID:            uuid.NewString(),
		BadgeID:       badgeID,
		Rule:          rule,
		RequiredCount: requiredCount,
	}
	require.NoError(f.t, f.store.Modules.Create(f.ctx, module))
	return module
}

func (f *fixture) addRequirement(badgeID, moduleID string, requiredCompletions, nightsGate int) models.BadgeRequirement {
	f.t.Helper()
	req := models.BadgeRequirement{
		ID:                  uuid.NewString(),
		BadgeID:             badgeID,
		ModuleID:            moduleID,
		Text:                "do the thing",
		RequiredCompletions: requiredCompletions,
		NightsAwayRequired:  nightsGate,
	}
	require.NoError(f.t, f.store.Requirements.Create(f.ctx, req))
	return req
}

func (f *fixture) progressRows(memberID, requirementID string) []models.MemberRequirementProgress {
	f.t.Helper()
	rows, err := f.store.RequirementProgress.Filter(f.ctx, map[string]any{
		"member_id":      memberID,
		"requirement_id": requirementID,
	})
	require.NoError(f.t, err)
	return rows
}

func (f *fixture) awardsFor(memberID, badgeID string) []models.MemberBadgeAward {
	f.t.Helper()
	awards, err := f.store.Awards.Filter(f.ctx, map[string]any{
		"member_id": memberID,
		"badge_id":  badgeID,
	})
	require.NoError(f.t, err)
	return awards
}

func (f *fixture) badgeStatus(memberID, badgeID string) models.BadgeStatus {
	f.t.Helper()
	row, found, err := store.First(f.ctx, f.store.BadgeProgress, map[string]any{
		"member_id": memberID,
		"badge_id":  badgeID,
	})
	require.NoError(f.t, err)
	if !found {
		return models.BadgeNotStarted
	}
	return row.Status
}

// completeAndReconcile pushes one requirement to completed and cascades, the
// way the manual toggle adapter does.
func (f *fixture) completeAndReconcile(memberID string, req models.BadgeRequirement) {
	f.t.Helper()
	for {
		row, _, err := f.ledger.RecordCompletion(f.ctx, memberID, req.ID, SourceMeta{Source: models.SourceManual})
		require.NoError(f.t, err)
		if row.Completed {
			break
		}
	}
	transition, err := f.agg.ReconcileBadge(f.ctx, memberID, req.BadgeID)
	require.NoError(f.t, err)
	if transition != nil {
		require.NoError(f.t, f.rec.Apply(f.ctx, transition))
	}
}

func (f *fixture) revertAndReconcile(memberID string, req models.BadgeRequirement) {
	f.t.Helper()
	_, err := f.ledger.RevertCompletion(f.ctx, memberID, req.ID)
	require.NoError(f.t, err)
	transition, err := f.agg.ReconcileBadge(f.ctx, memberID, req.BadgeID)
	require.NoError(f.t, err)
	if transition != nil {
		require.NoError(f.t, f.rec.Apply(f.ctx, transition))
	}
}

func daysAgo(days int) *time.Time {
	t := time.Now().AddDate(0, 0, -days)
	return &t
}
