package services

import (
	"context"
	"fmt"

	"scout-admin-system/apperrors"
	"scout-admin-system/models"
)

// ToggleOutcome is returned to the manual-edit adapter so the UI can show the
// new counter and any badge status change in one round trip.
type ToggleOutcome struct {
	Progress   *models.MemberRequirementProgress `json:"progress,omitempty"`
	Transition *Transition                       `json:"transition,omitempty"`
}

// ManualProgressService is the single-requirement toggle adapter: one leader
// action on one (member, requirement), cascaded through aggregation and award
// reconciliation for the owning badge.
type ManualProgressService struct {
	Ledger     *LedgerService
	Aggregator *BadgeAggregator
	Reconciler *AwardReconciler
}

func NewManualProgressService(ledger *LedgerService, agg *BadgeAggregator, rec *AwardReconciler) *ManualProgressService {
	return &ManualProgressService{Ledger: ledger, Aggregator: agg, Reconciler: rec}
}

func (s *ManualProgressService) Toggle(ctx context.Context, memberID, requirementID string, increment bool, actorID string) (*ToggleOutcome, error) {
	outcome := &ToggleOutcome{}
	var edge bool

	if increment {
		row, completedEdge, err := s.Ledger.RecordCompletion(ctx, memberID, requirementID, SourceMeta{
			Source:      models.SourceManual,
			CompletedBy: actorID,
		})
		if err != nil {
			return nil, err
		}
		outcome.Progress = row
		edge = completedEdge
	} else {
		revertedEdge, err := s.Ledger.RevertCompletion(ctx, memberID, requirementID)
		if err != nil {
			return nil, err
		}
		edge = revertedEdge
	}

	// The badge aggregate only moves on completion edges; a counter change
	// inside the completed band for the requirement changes nothing upstream.
	// First completions still need a reconcile to surface in_progress, so
	// increments always recompute.
	if !edge && !increment {
		return outcome, nil
	}

	req, err := s.Ledger.Store.Requirements.Get(ctx, requirementID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, fmt.Sprintf("requirement %s", requirementID))
	}
	transition, err := s.Aggregator.ReconcileBadge(ctx, memberID, req.BadgeID)
	if err != nil {
		return nil, err
	}
	if transition != nil {
		if err := s.Reconciler.Apply(ctx, transition); err != nil {
			return nil, err
		}
		outcome.Transition = transition
	}
	return outcome, nil
}
