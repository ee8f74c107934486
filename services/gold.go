package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"scout-admin-system/models"
	"scout-admin-system/store"
	"scout-admin-system/utils"
)

// SweepError reports one member a sweep could not process.
type SweepError struct {
	MemberID string
	Err      error
}

// SweepResult summarizes a full-population reconciliation run.
type SweepResult struct {
	Scanned int          `json:"scanned"`
	Created int          `json:"created"`
	Errors  []SweepError `json:"-"`
	Failed  int          `json:"failed"`
}

// GoldAwardService is the capstone sweep: once a member holds presented
// awards for every active challenge badge, a pending capstone award is
// created. It runs over the whole population and is safe to re-run.
type GoldAwardService struct {
	Store *store.Store
	Now   func() time.Time
}

func NewGoldAwardService(s *store.Store) *GoldAwardService {
	return &GoldAwardService{Store: s, Now: time.Now}
}

func (s *GoldAwardService) Run(ctx context.Context) (*SweepResult, error) {
	badges, err := s.Store.Badges.Filter(ctx, map[string]any{
		"category": models.BadgeCategoryChallenge,
		"active":   true,
	})
	if err != nil {
		return nil, err
	}

	var capstone *models.BadgeDefinition
	required := make(map[string]bool)
	for i := range badges {
		if badges[i].IsCapstone {
			capstone = &badges[i]
			continue
		}
		required[badges[i].ID] = true
	}
	if capstone == nil || len(required) == 0 {
		utils.Warn("gold award sweep skipped: no capstone or no challenge badges configured")
		return &SweepResult{}, nil
	}

	members, err := s.Store.Members.Filter(ctx, map[string]any{"active": true})
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, member := range members {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++

		created, err := s.reconcileMember(ctx, member.ID, capstone.ID, required)
		if err != nil {
			result.Errors = append(result.Errors, SweepError{MemberID: member.ID, Err: err})
			result.Failed++
			continue
		}
		if created {
			result.Created++
		}
	}

	utils.Info("gold award sweep finished",
		"scanned", result.Scanned, "created", result.Created, "failed", result.Failed)
	return result, nil
}

func (s *GoldAwardService) reconcileMember(ctx context.Context, memberID, capstoneID string, required map[string]bool) (bool, error) {
	_, hasCapstone, err := store.First(ctx, s.Store.Awards, map[string]any{
		"member_id": memberID,
		"badge_id":  capstoneID,
	})
	if err != nil {
		return false, err
	}
	if hasCapstone {
		return false, nil
	}

	awards, err := s.Store.Awards.Filter(ctx, map[string]any{
		"member_id": memberID,
		"status":    models.AwardPresented,
	})
	if err != nil {
		return false, err
	}

	held := 0
	for _, award := range awards {
		if required[award.BadgeID] {
			held++
		}
	}
	if held < len(required) {
		return false, nil
	}

	now := s.Now()
	award := models.MemberBadgeAward{
		ID:            uuid.NewString(),
		MemberID:      memberID,
		BadgeID:       capstoneID,
		Status:        models.AwardPending,
		CompletedDate: &now,
	}
	if err := s.Store.Awards.Create(ctx, award); err != nil {
		return false, err
	}
	utils.Info("capstone award pending", "member_id", memberID, "badge_id", capstoneID)
	return true, nil
}
