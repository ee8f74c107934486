package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"scout-admin-system/apperrors"
	"scout-admin-system/models"
	"scout-admin-system/store"
)

// SourceMeta records where a completion came from.
type SourceMeta struct {
	Source      models.ProgressSource
	ProgrammeID string
	EventID     string
	CompletedBy string
}

// LedgerService owns MemberRequirementProgress rows. All mutations for a
// given member are serialized through a per-member mutex so concurrent
// triggers (two meetings marked on the same day, a manual edit racing a batch)
// cannot lose increments within this process.
type LedgerService struct {
	Store *store.Store

	memberLocks sync.Map // member id -> *sync.Mutex
}

func NewLedgerService(s *store.Store) *LedgerService {
	return &LedgerService{Store: s}
}

func (s *LedgerService) lockMember(memberID string) func() {
	v, _ := s.memberLocks.LoadOrStore(memberID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// RecordCompletion increments the completion counter for (member,
// requirement), creating the row on first completion. The returned bool is
// true when the requirement just transitioned to completed, the edge trigger
// for badge aggregation.
func (s *LedgerService) RecordCompletion(ctx context.Context, memberID, requirementID string, meta SourceMeta) (*models.MemberRequirementProgress, bool, error) {
	req, err := s.Store.Requirements.Get(ctx, requirementID)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ErrCodeNotFound, fmt.Sprintf("requirement %s", requirementID))
	}
	member, err := s.Store.Members.Get(ctx, memberID)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ErrCodeNotFound, fmt.Sprintf("member %s", memberID))
	}

	// Nights-away gate: checked against the counter as it stands right now,
	// not re-enforced later.
	if req.NightsAwayRequired > 0 && member.TotalNightsAway < req.NightsAwayRequired {
		return nil, false, apperrors.New(apperrors.ErrCodeGatingUnmet,
			fmt.Sprintf("requirement needs %d nights away, member has %d", req.NightsAwayRequired, member.TotalNightsAway))
	}

	unlock := s.lockMember(memberID)
	defer unlock()

	row, found, err := store.First(ctx, s.Store.RequirementProgress, map[string]any{
		"member_id":      memberID,
		"requirement_id": requirementID,
	})
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	if !found {
		row = models.MemberRequirementProgress{
			ID:              uuid.NewString(),
			MemberID:        memberID,
			RequirementID:   requirementID,
			BadgeID:         req.BadgeID,
			ModuleID:        req.ModuleID,
			CompletionCount: 1,
			Source:          meta.Source,
			ProgrammeID:     meta.ProgrammeID,
			EventID:         meta.EventID,
			CompletedBy:     meta.CompletedBy,
		}
		if row.CompletionCount >= req.RequiredCompletions {
			row.Completed = true
			row.CompletedDate = &now
		}
		if err := s.Store.RequirementProgress.Create(ctx, row); err != nil {
			return nil, false, err
		}
		return &row, row.Completed, nil
	}

	wasCompleted := row.Completed
	row.CompletionCount++
	row.Completed = row.CompletionCount >= req.RequiredCompletions
	if row.Completed && row.CompletedDate == nil {
		row.CompletedDate = &now
	}
	if err := s.Store.RequirementProgress.Update(ctx, row); err != nil {
		return nil, false, err
	}
	return &row, row.Completed && !wasCompleted, nil
}

// RevertCompletion decrements the counter, deleting the row when it reaches
// zero. Returns true when the requirement just transitioned out of completed.
func (s *LedgerService) RevertCompletion(ctx context.Context, memberID, requirementID string) (bool, error) {
	req, err := s.Store.Requirements.Get(ctx, requirementID)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeNotFound, fmt.Sprintf("requirement %s", requirementID))
	}

	unlock := s.lockMember(memberID)
	defer unlock()

	row, found, err := store.First(ctx, s.Store.RequirementProgress, map[string]any{
		"member_id":      memberID,
		"requirement_id": requirementID,
	})
	if err != nil {
		return false, err
	}
	if !found {
		// Nothing recorded, nothing to revert.
		return false, nil
	}

	wasCompleted := row.Completed
	row.CompletionCount--
	if row.CompletionCount <= 0 {
		if err := s.Store.RequirementProgress.Delete(ctx, row.ID); err != nil {
			return false, err
		}
		return wasCompleted, nil
	}

	row.Completed = row.CompletionCount >= req.RequiredCompletions
	if !row.Completed {
		row.CompletedDate = nil
	}
	if err := s.Store.RequirementProgress.Update(ctx, row); err != nil {
		return false, err
	}
	return wasCompleted && !row.Completed, nil
}

// BulkPair identifies a (member, requirement) the batch fully completed.
type BulkPair struct {
	MemberID      string
	RequirementID string
	BadgeID       string
}

// BulkError reports a pair the batch skipped and why.
type BulkError struct {
	MemberID      string
	RequirementID string
	Err           error
}

type BulkResult struct {
	Updated     int
	AlreadyDone int
	// NewlyCompleted lists pairs this batch moved to completed;
	// AlreadyCompleted lists pairs a previous run had already committed.
	// Callers reconcile badges over both, so a batch that died between the
	// ledger write and the reconcile converges on the next run.
	NewlyCompleted   []BulkPair
	AlreadyCompleted []BulkPair
	Skipped          []BulkError
}

// BulkMarkCompleted marks every (member, requirement) pair fully completed in
// one pass, used by the attendance awarding flow. Pairs already completed are
// skipped, so a re-run converges to the same state. Gating and missing
// references fail per pair without aborting the batch; store failures abort
// since the caller retries the whole batch anyway.
func (s *LedgerService) BulkMarkCompleted(ctx context.Context, memberIDs, requirementIDs []string, meta SourceMeta) (*BulkResult, error) {
	result := &BulkResult{}

	reqs := make(map[string]*models.BadgeRequirement, len(requirementIDs))
	for _, id := range requirementIDs {
		req, err := s.Store.Requirements.Get(ctx, id)
		if err != nil {
			reqs[id] = nil
			continue
		}
		r := req
		reqs[id] = &r
	}

	for _, memberID := range memberIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		member, err := s.Store.Members.Get(ctx, memberID)
		memberMissing := err != nil

		unlock := s.lockMember(memberID)
		for _, reqID := range requirementIDs {
			req := reqs[reqID]
			if req == nil {
				result.Skipped = append(result.Skipped, BulkError{memberID, reqID,
					apperrors.New(apperrors.ErrCodeNotFound, fmt.Sprintf("requirement %s", reqID))})
				continue
			}
			if memberMissing {
				result.Skipped = append(result.Skipped, BulkError{memberID, reqID,
					apperrors.New(apperrors.ErrCodeNotFound, fmt.Sprintf("member %s", memberID))})
				continue
			}
			if req.NightsAwayRequired > 0 && member.TotalNightsAway < req.NightsAwayRequired {
				result.Skipped = append(result.Skipped, BulkError{memberID, reqID,
					apperrors.New(apperrors.ErrCodeGatingUnmet,
						fmt.Sprintf("requirement needs %d nights away, member has %d", req.NightsAwayRequired, member.TotalNightsAway))})
				continue
			}

			if err := s.markPairCompleted(ctx, memberID, *req, meta, result); err != nil {
				unlock()
				return result, err
			}
		}
		unlock()
	}
	return result, nil
}

func (s *LedgerService) markPairCompleted(ctx context.Context, memberID string, req models.BadgeRequirement, meta SourceMeta, result *BulkResult) error {
	row, found, err := store.First(ctx, s.Store.RequirementProgress, map[string]any{
		"member_id":      memberID,
		"requirement_id": req.ID,
	})
	if err != nil {
		return err
	}
	if found && row.Completed {
		result.AlreadyDone++
		result.AlreadyCompleted = append(result.AlreadyCompleted, BulkPair{
			MemberID:      memberID,
			RequirementID: req.ID,
			BadgeID:       req.BadgeID,
		})
		return nil
	}

	now := time.Now()
	if found {
		if row.CompletionCount < req.RequiredCompletions {
			row.CompletionCount = req.RequiredCompletions
		}
		row.Completed = true
		row.CompletedDate = &now
		if err := s.Store.RequirementProgress.Update(ctx, row); err != nil {
			return err
		}
	} else {
		row = models.MemberRequirementProgress{
			ID:              uuid.NewString(),
			MemberID:        memberID,
			RequirementID:   req.ID,
			BadgeID:         req.BadgeID,
			ModuleID:        req.ModuleID,
			CompletionCount: req.RequiredCompletions,
			Completed:       true,
			CompletedDate:   &now,
			Source:          meta.Source,
			ProgrammeID:     meta.ProgrammeID,
			EventID:         meta.EventID,
			CompletedBy:     meta.CompletedBy,
		}
		if err := s.Store.RequirementProgress.Create(ctx, row); err != nil {
			return err
		}
	}

	result.Updated++
	result.NewlyCompleted = append(result.NewlyCompleted, BulkPair{
		MemberID:      memberID,
		RequirementID: req.ID,
		BadgeID:       req.BadgeID,
	})
	return nil
}
