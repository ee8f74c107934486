package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scout-admin-system/apperrors"
	"scout-admin-system/models"
	"scout-admin-system/store"
	"scout-admin-system/utils"
)

// RetractionPolicy is the rule for what regression may take back: a pending
// award is deleted, a presented one is never touched. Taking back a badge a
// member already wears is a leader decision, not an automatic one.
const RetractionPolicy = "retract-pending-keep-presented"

// AwardReconciler maintains MemberBadgeAward rows off badge transitions and
// applies the outdoor side effects carried by attendance context. Every write
// is read-decide-write; the store has no compare-and-swap, so re-running the
// same trigger must land in the same state.
type AwardReconciler struct {
	Store *store.Store
	Now   func() time.Time
}

func NewAwardReconciler(s *store.Store) *AwardReconciler {
	return &AwardReconciler{Store: s, Now: time.Now}
}

// Apply reacts to one badge transition.
func (r *AwardReconciler) Apply(ctx context.Context, t *Transition) error {
	switch {
	case t.Completed():
		return r.ensurePendingAward(ctx, t.MemberID, t.BadgeID)
	case t.Regressed():
		return r.retractPendingAward(ctx, t.MemberID, t.BadgeID)
	}
	return nil
}

func (r *AwardReconciler) ensurePendingAward(ctx context.Context, memberID, badgeID string) error {
	award, found, err := store.First(ctx, r.Store.Awards, map[string]any{
		"member_id": memberID,
		"badge_id":  badgeID,
	})
	if err != nil {
		return err
	}

	now := r.Now()
	if found {
		if award.Status == models.AwardPresented {
			// Already given out; nothing to do.
			return nil
		}
		award.CompletedDate = &now
		return r.Store.Awards.Update(ctx, award)
	}

	award = models.MemberBadgeAward{
		ID:            uuid.NewString(),
		MemberID:      memberID,
		BadgeID:       badgeID,
		Status:        models.AwardPending,
		CompletedDate: &now,
	}
	if err := r.Store.Awards.Create(ctx, award); err != nil {
		return err
	}
	utils.Info("badge award pending", "member_id", memberID, "badge_id", badgeID)
	return nil
}

func (r *AwardReconciler) retractPendingAward(ctx context.Context, memberID, badgeID string) error {
	award, found, err := store.First(ctx, r.Store.Awards, map[string]any{
		"member_id": memberID,
		"badge_id":  badgeID,
	})
	if err != nil {
		return err
	}
	if !found || award.Status == models.AwardPresented {
		return nil
	}
	utils.Info("pending badge award retracted", "member_id", memberID, "badge_id", badgeID)
	return r.Store.Awards.Delete(ctx, award.ID)
}

// PresentAward marks a pending award as physically presented, the terminal
// state. Presenting twice is an error the caller can surface as a conflict.
func (r *AwardReconciler) PresentAward(ctx context.Context, memberID, badgeID, awardedBy string) (*models.MemberBadgeAward, error) {
	award, found, err := store.First(ctx, r.Store.Awards, map[string]any{
		"member_id": memberID,
		"badge_id":  badgeID,
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.New(apperrors.ErrCodeNotFound,
			fmt.Sprintf("no award for member %s badge %s", memberID, badgeID))
	}
	if award.Status == models.AwardPresented {
		return nil, apperrors.ErrAlreadyAwarded
	}

	now := r.Now()
	award.Status = models.AwardPresented
	award.AwardedDate = &now
	award.AwardedBy = awardedBy
	if err := r.Store.Awards.Update(ctx, award); err != nil {
		return nil, err
	}
	return &award, nil
}

// AddHikeAway bumps the member's hike counter. Callers invoke it only for
// pairs an awarding batch newly completed, which is what keeps a re-run from
// double counting.
func (r *AwardReconciler) AddHikeAway(ctx context.Context, memberID string) error {
	member, err := r.Store.Members.Get(ctx, memberID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, fmt.Sprintf("member %s", memberID))
	}
	member.TotalHikesAway++
	return r.Store.Members.Update(ctx, member)
}

// RecordNightsAway appends a NightsAwayLog entry for (member, event) and
// rolls the nights into the member's counter. The log is the source of truth:
// if an entry already exists for the pair the whole call is a no-op, so
// replaying an event batch cannot double count.
func (r *AwardReconciler) RecordNightsAway(ctx context.Context, memberID string, event models.Event, actorID string) (bool, error) {
	if event.Nights <= 0 {
		return false, nil
	}

	_, found, err := store.First(ctx, r.Store.NightsAwayLogs, map[string]any{
		"member_id": memberID,
		"event_id":  event.ID,
	})
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}

	member, err := r.Store.Members.Get(ctx, memberID)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeNotFound, fmt.Sprintf("member %s", memberID))
	}

	entry := models.NightsAwayLog{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		EventID:   event.ID,
		Nights:    event.Nights,
		Date:      event.Start,
		CreatedBy: actorID,
	}
	if err := r.Store.NightsAwayLogs.Create(ctx, entry); err != nil {
		return false, err
	}

	member.TotalNightsAway += event.Nights
	if err := r.Store.Members.Update(ctx, member); err != nil {
		return false, err
	}
	return true, nil
}
