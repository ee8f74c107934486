package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"scout-admin-system/models"
	"scout-admin-system/store"
	"scout-admin-system/utils"
)

const daysPerYear = 365.25

// TenureService awards time-in-scouting badge stages once a member's elapsed
// membership crosses each stage threshold. Monotonic: a stage once awarded is
// never retracted, even if recomputed with a later clock.
type TenureService struct {
	Store *store.Store
	Now   func() time.Time
}

func NewTenureService(s *store.Store) *TenureService {
	return &TenureService{Store: s, Now: time.Now}
}

func (s *TenureService) Run(ctx context.Context) (*SweepResult, error) {
	stages, err := s.Store.Badges.Filter(ctx, map[string]any{
		"special_type": models.SpecialBadgeTimeInScouting,
		"active":       true,
	})
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		utils.Warn("tenure sweep skipped: no time-in-scouting badges configured")
		return &SweepResult{}, nil
	}

	members, err := s.Store.Members.Filter(ctx, map[string]any{"active": true})
	if err != nil {
		return nil, err
	}

	now := s.Now()
	result := &SweepResult{}
	for _, member := range members {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if member.ScoutingStartDate == nil {
			continue
		}
		result.Scanned++

		elapsedYears := now.Sub(*member.ScoutingStartDate).Hours() / 24 / daysPerYear
		for _, stage := range stages {
			if elapsedYears < float64(stage.YearsRequired) {
				continue
			}
			created, err := s.ensureStageAward(ctx, member.ID, stage.ID, now)
			if err != nil {
				result.Errors = append(result.Errors, SweepError{MemberID: member.ID, Err: err})
				result.Failed++
				continue
			}
			if created {
				result.Created++
			}
		}
	}

	utils.Info("tenure sweep finished",
		"scanned", result.Scanned, "created", result.Created, "failed", result.Failed)
	return result, nil
}

func (s *TenureService) ensureStageAward(ctx context.Context, memberID, badgeID string, now time.Time) (bool, error) {
	_, found, err := store.First(ctx, s.Store.Awards, map[string]any{
		"member_id": memberID,
		"badge_id":  badgeID,
	})
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}

	award := models.MemberBadgeAward{
		ID:            uuid.NewString(),
		MemberID:      memberID,
		BadgeID:       badgeID,
		Status:        models.AwardPending,
		CompletedDate: &now,
	}
	if err := s.Store.Awards.Create(ctx, award); err != nil {
		return false, err
	}
	return true, nil
}
