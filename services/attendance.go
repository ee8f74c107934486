package services

import (
	"context"
	"fmt"

	"scout-admin-system/apperrors"
	"scout-admin-system/models"
	"scout-admin-system/store"
	"scout-admin-system/utils"
)

// AwardSummary is what the attendance trigger reports back to the caller.
type AwardSummary struct {
	RequirementsUpdated int         `json:"requirements_updated"`
	AlreadyDone         int         `json:"already_done"`
	HikesAwarded        int         `json:"hikes_awarded"`
	NightsAwarded       int         `json:"nights_awarded"`
	BadgesCompleted     int         `json:"badges_completed"`
	Skipped             []BulkError `json:"-"`
	SkippedCount        int         `json:"skipped"`
}

// AttendanceService is the attendance-awarding trigger adapter: it turns a
// programme item or event with marked attendance into ledger completions,
// badge reconciliation and outdoor side effects. It holds no state of its
// own; re-running it converges rather than accumulates.
type AttendanceService struct {
	Store      *store.Store
	Ledger     *LedgerService
	Aggregator *BadgeAggregator
	Reconciler *AwardReconciler
}

func NewAttendanceService(s *store.Store, ledger *LedgerService, agg *BadgeAggregator, rec *AwardReconciler) *AttendanceService {
	return &AttendanceService{Store: s, Ledger: ledger, Aggregator: agg, Reconciler: rec}
}

// AwardForParent awards all badge links on the given programme item or event
// to every member marked present.
func (s *AttendanceService) AwardForParent(ctx context.Context, parentType models.ParentType, parentID, actorID string) (*AwardSummary, error) {
	var event *models.Event
	meta := SourceMeta{Source: models.SourceAttendance, CompletedBy: actorID}

	switch parentType {
	case models.ParentProgramme:
		if _, err := s.Store.Programmes.Get(ctx, parentID); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, fmt.Sprintf("programme %s", parentID))
		}
		meta.ProgrammeID = parentID
	case models.ParentEvent:
		ev, err := s.Store.Events.Get(ctx, parentID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, fmt.Sprintf("event %s", parentID))
		}
		event = &ev
		meta.EventID = parentID
	default:
		return nil, apperrors.New(apperrors.ErrCodeValidation, fmt.Sprintf("unknown parent type %q", parentType))
	}

	links, err := s.Store.BadgeLinks.Filter(ctx, map[string]any{
		"parent_type": parentType,
		"parent_id":   parentID,
	})
	if err != nil {
		return nil, err
	}

	attendance, err := s.Store.Attendance.Filter(ctx, map[string]any{
		"parent_type": parentType,
		"parent_id":   parentID,
		"present":     true,
	})
	if err != nil {
		return nil, err
	}

	summary := &AwardSummary{}
	if len(attendance) == 0 {
		return summary, nil
	}

	memberIDs := make([]string, 0, len(attendance))
	for _, att := range attendance {
		memberIDs = append(memberIDs, att.MemberID)
	}

	// Nights away are event-level: every present member gets the event's
	// nights once, whether or not badge work moved.
	if event != nil && event.Nights > 0 {
		for _, memberID := range memberIDs {
			added, err := s.Reconciler.RecordNightsAway(ctx, memberID, *event, actorID)
			if err != nil {
				utils.Error("nights away not recorded", "member_id", memberID, "event_id", event.ID, "error", err)
				continue
			}
			if added {
				summary.NightsAwarded += event.Nights
			}
		}
	}

	if len(links) == 0 {
		return summary, nil
	}

	linkByReq := make(map[string]models.BadgeLink, len(links))
	reqIDs := make([]string, 0, len(links))
	for _, link := range links {
		linkByReq[link.RequirementID] = link
		reqIDs = append(reqIDs, link.RequirementID)
	}

	bulk, err := s.Ledger.BulkMarkCompleted(ctx, memberIDs, reqIDs, meta)
	if err != nil {
		return summary, err
	}
	summary.RequirementsUpdated = bulk.Updated
	summary.AlreadyDone = bulk.AlreadyDone
	summary.Skipped = bulk.Skipped
	summary.SkippedCount = len(bulk.Skipped)

	// Hike counters move only for pairs this batch newly completed, so a
	// repeat run finds nothing to count.
	touched := make(map[string]BulkPair)
	for _, pair := range bulk.NewlyCompleted {
		if link, ok := linkByReq[pair.RequirementID]; ok && link.CountsAsHikeAway {
			if err := s.Reconciler.AddHikeAway(ctx, pair.MemberID); err != nil {
				utils.Error("hike counter not updated", "member_id", pair.MemberID, "error", err)
			} else {
				summary.HikesAwarded++
			}
		}
		touched[pair.MemberID+"/"+pair.BadgeID] = pair
	}
	// Already-completed pairs still reconcile: a prior run may have committed
	// the ledger write and died before the badge cascade.
	for _, pair := range bulk.AlreadyCompleted {
		touched[pair.MemberID+"/"+pair.BadgeID] = pair
	}

	// Cascade every touched (member, badge) through the aggregator and the
	// award reconciler. One pair failing must not block the rest.
	for _, pair := range touched {
		transition, err := s.Aggregator.ReconcileBadge(ctx, pair.MemberID, pair.BadgeID)
		if err != nil {
			utils.Error("badge reconciliation failed",
				"member_id", pair.MemberID, "badge_id", pair.BadgeID, "error", err)
			continue
		}
		if transition == nil {
			continue
		}
		if err := s.Reconciler.Apply(ctx, transition); err != nil {
			utils.Error("award reconciliation failed",
				"member_id", pair.MemberID, "badge_id", pair.BadgeID, "error", err)
			continue
		}
		if transition.Completed() {
			summary.BadgesCompleted++
		}
	}

	return summary, nil
}
