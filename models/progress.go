package models

import "time"

type ProgressSource string

const (
	SourceAttendance ProgressSource = "attendance"
	SourceManual     ProgressSource = "manual"
)

type BadgeStatus string

const (
	BadgeNotStarted BadgeStatus = "not_started"
	BadgeInProgress BadgeStatus = "in_progress"
	BadgeCompleted  BadgeStatus = "completed"
)

type AwardStatus string

const (
	AwardPending AwardStatus = "pending"
	// AwardPresented is terminal: the reconciler never deletes or mutates it.
	AwardPresented AwardStatus = "awarded"
)

// MemberRequirementProgress is the ledger row: at most one per
// (member, requirement), created on first completion, deleted when the count
// returns to zero. BadgeID/ModuleID are denormalized copies of the
// requirement's parent chain for aggregate queries; aggregation recomputes
// from definitions rather than trusting them.
type MemberRequirementProgress struct {
	ID            string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MemberID      string `gorm:"not null;index:idx_member_requirement,unique" json:"member_id"`
	RequirementID string `gorm:"not null;index:idx_member_requirement,unique" json:"requirement_id"`
	BadgeID       string `gorm:"index;not null" json:"badge_id"`
	ModuleID      string `gorm:"index;not null" json:"module_id"`

	CompletionCount int  `gorm:"default:1" json:"completion_count"`
	Completed       bool `gorm:"default:false" json:"completed"`

	CompletedDate *time.Time     `json:"completed_date,omitempty"`
	Source        ProgressSource `gorm:"type:varchar(16);default:'manual'" json:"source"`
	// Correlation back to the triggering programme item or event, if any.
	ProgrammeID string `json:"programme_id,omitempty"`
	EventID     string `json:"event_id,omitempty"`
	CompletedBy string `json:"completed_by,omitempty"`

	Timestamps
}

func (p MemberRequirementProgress) GetID() string { return p.ID }

// MemberBadgeProgress is the authoritative badge state machine instance,
// one row per (member, badge). Absence of a row means not_started.
type MemberBadgeProgress struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MemberID string `gorm:"not null;index:idx_member_badge,unique" json:"member_id"`
	BadgeID  string `gorm:"not null;index:idx_member_badge,unique" json:"badge_id"`

	Status         BadgeStatus `gorm:"type:varchar(16);not null;default:'in_progress'" json:"status"`
	CompletionDate *time.Time  `json:"completion_date,omitempty"`

	Timestamps
}

func (p MemberBadgeProgress) GetID() string { return p.ID }

// MemberBadgeAward exists once any award has ever been proposed for the pair.
// pending = earned, not yet physically presented; awarded = presented.
type MemberBadgeAward struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MemberID string `gorm:"not null;index:idx_member_badge_award,unique" json:"member_id"`
	BadgeID  string `gorm:"not null;index:idx_member_badge_award,unique" json:"badge_id"`

	Status        AwardStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"award_status"`
	CompletedDate *time.Time  `json:"completed_date,omitempty"`
	AwardedDate   *time.Time  `json:"awarded_date,omitempty"`
	AwardedBy     string      `json:"awarded_by,omitempty"`

	Timestamps
}

func (a MemberBadgeAward) GetID() string { return a.ID }
