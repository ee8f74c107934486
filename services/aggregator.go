package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scout-admin-system/apperrors"
	"scout-admin-system/models"
	"scout-admin-system/store"
)

// Transition describes a badge status change produced by reconciliation; the
// award reconciler consumes it.
type Transition struct {
	MemberID string
	BadgeID  string
	From     models.BadgeStatus
	To       models.BadgeStatus
}

// Completed reports a fresh completion edge.
func (t *Transition) Completed() bool {
	return t != nil && t.To == models.BadgeCompleted && t.From != models.BadgeCompleted
}

// Regressed reports a completed badge falling back to in_progress.
func (t *Transition) Regressed() bool {
	return t != nil && t.From == models.BadgeCompleted && t.To == models.BadgeInProgress
}

// BadgeAggregator evaluates module rules and drives the member-badge state
// machine. It recomputes from the ledger on every edge instead of keeping
// per-module tallies; the extra reads buy freedom from cache drift.
type BadgeAggregator struct {
	Store *store.Store
}

func NewBadgeAggregator(s *store.Store) *BadgeAggregator {
	return &BadgeAggregator{Store: s}
}

// ModuleSatisfied evaluates the module's completion rule over the member's
// completed requirement ids. The rule set is closed: anything unrecognized is
// a data error, not a silent false.
func ModuleSatisfied(module models.BadgeModule, moduleReqs []models.BadgeRequirement, completedReqIDs map[string]bool) (bool, error) {
	completed := 0
	for _, req := range moduleReqs {
		if completedReqIDs[req.ID] {
			completed++
		}
	}

	switch module.Rule {
	case models.RuleAllRequired:
		// Exact coverage: every requirement id, not merely enough rows. The
		// ledger's uniqueness invariant means counting distinct ids suffices.
		return completed == len(moduleReqs), nil
	case models.RuleXOfN:
		return completed >= module.RequiredCount, nil
	default:
		return false, apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("module %s has unknown rule %q", module.ID, module.Rule))
	}
}

// ModuleCompletionFraction returns completed/required for progress reporting.
// x_of_n modules cap the numerator so over-completion never exceeds 1.
func ModuleCompletionFraction(module models.BadgeModule, moduleReqs []models.BadgeRequirement, completedReqIDs map[string]bool) float64 {
	completed := 0
	for _, req := range moduleReqs {
		if completedReqIDs[req.ID] {
			completed++
		}
	}

	required := len(moduleReqs)
	if module.Rule == models.RuleXOfN {
		required = module.RequiredCount
		if completed > required {
			completed = required
		}
	}
	if required == 0 {
		return 1
	}
	return float64(completed) / float64(required)
}

// badgeSnapshot gathers everything needed to evaluate one (member, badge).
type badgeSnapshot struct {
	modules      []models.BadgeModule
	reqsByModule map[string][]models.BadgeRequirement
	completed    map[string]bool
}

func (a *BadgeAggregator) loadSnapshot(ctx context.Context, memberID, badgeID string) (*badgeSnapshot, error) {
	modules, err := a.Store.Modules.Filter(ctx, map[string]any{"badge_id": badgeID})
	if err != nil {
		return nil, err
	}
	reqs, err := a.Store.Requirements.Filter(ctx, map[string]any{"badge_id": badgeID})
	if err != nil {
		return nil, err
	}
	progress, err := a.Store.RequirementProgress.Filter(ctx, map[string]any{
		"member_id": memberID,
		"badge_id":  badgeID,
	})
	if err != nil {
		return nil, err
	}

	snap := &badgeSnapshot{
		modules:      modules,
		reqsByModule: make(map[string][]models.BadgeRequirement),
		completed:    make(map[string]bool),
	}
	for _, req := range reqs {
		snap.reqsByModule[req.ModuleID] = append(snap.reqsByModule[req.ModuleID], req)
	}
	for _, row := range progress {
		if row.Completed {
			snap.completed[row.RequirementID] = true
		}
	}
	return snap, nil
}

func (snap *badgeSnapshot) allModulesSatisfied() (bool, error) {
	if len(snap.modules) == 0 {
		return false, nil
	}
	for _, module := range snap.modules {
		ok, err := ModuleSatisfied(module, snap.reqsByModule[module.ID], snap.completed)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ReconcileBadge recomputes the member's status for one badge and applies the
// state machine: not_started -> in_progress -> completed, with
// completed -> in_progress as the only backward transition. Returns nil when
// nothing changed.
func (a *BadgeAggregator) ReconcileBadge(ctx context.Context, memberID, badgeID string) (*Transition, error) {
	if _, err := a.Store.Badges.Get(ctx, badgeID); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, fmt.Sprintf("badge %s", badgeID))
	}

	snap, err := a.loadSnapshot(ctx, memberID, badgeID)
	if err != nil {
		return nil, err
	}
	satisfied, err := snap.allModulesSatisfied()
	if err != nil {
		return nil, err
	}

	row, found, err := store.First(ctx, a.Store.BadgeProgress, map[string]any{
		"member_id": memberID,
		"badge_id":  badgeID,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !found {
		// Partial counts on a counted requirement don't start the badge; the
		// first completed requirement does.
		if len(snap.completed) == 0 && !satisfied {
			return nil, nil
		}
		row = models.MemberBadgeProgress{
			ID:       uuid.NewString(),
			MemberID: memberID,
			BadgeID:  badgeID,
			Status:   models.BadgeInProgress,
		}
		if satisfied {
			row.Status = models.BadgeCompleted
			row.CompletionDate = &now
		}
		if err := a.Store.BadgeProgress.Create(ctx, row); err != nil {
			return nil, err
		}
		return &Transition{MemberID: memberID, BadgeID: badgeID, From: models.BadgeNotStarted, To: row.Status}, nil
	}

	target := models.BadgeInProgress
	if satisfied {
		target = models.BadgeCompleted
	}
	if row.Status == target {
		return nil, nil
	}

	from := row.Status
	row.Status = target
	if satisfied {
		row.CompletionDate = &now
	} else {
		row.CompletionDate = nil
	}
	if err := a.Store.BadgeProgress.Update(ctx, row); err != nil {
		return nil, err
	}
	return &Transition{MemberID: memberID, BadgeID: badgeID, From: from, To: target}, nil
}

// BadgeCompletionFraction averages the module fractions for the progress
// percentage shown to leaders.
func (a *BadgeAggregator) BadgeCompletionFraction(ctx context.Context, memberID, badgeID string) (float64, error) {
	snap, err := a.loadSnapshot(ctx, memberID, badgeID)
	if err != nil {
		return 0, err
	}
	if len(snap.modules) == 0 {
		return 0, nil
	}
	var sum float64
	for _, module := range snap.modules {
		sum += ModuleCompletionFraction(module, snap.reqsByModule[module.ID], snap.completed)
	}
	return sum / float64(len(snap.modules)), nil
}
