package models

type BadgeCategory string

const (
	BadgeCategoryChallenge BadgeCategory = "challenge"
	BadgeCategoryActivity  BadgeCategory = "activity"
	BadgeCategoryStaged    BadgeCategory = "staged"
	BadgeCategoryCore      BadgeCategory = "core"
	BadgeCategorySpecial   BadgeCategory = "special"
)

type SpecialBadgeType string

const (
	SpecialBadgeNone           SpecialBadgeType = ""
	SpecialBadgeTimeInScouting SpecialBadgeType = "time_in_scouting"
)

// ModuleRule is a closed set; the aggregator matches on it exhaustively and
// treats anything else as a data error rather than guessing.
type ModuleRule string

const (
	RuleAllRequired ModuleRule = "all_required"
	RuleXOfN        ModuleRule = "x_of_n_required"
)

// SectionAll marks a badge available to every age section.
const SectionAll = "all"

// BadgeDefinition: static configuration owned by leaders. Immutable once
// published except administrative edits.
type BadgeDefinition struct {
	ID          string        `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Slug        string        `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string        `gorm:"not null" json:"name"`
	Section     string        `gorm:"not null;default:'all'" json:"section"` // "all" or an age-section tag
	Category    BadgeCategory `gorm:"type:varchar(16);not null" json:"category"`
	Description string        `json:"description"`

	// Staged/tenure families: stages share a family id and carry a stage number.
	BadgeFamilyID *string `gorm:"index" json:"badge_family_id,omitempty"`
	StageNumber   *int    `json:"stage_number,omitempty"`

	SpecialType SpecialBadgeType `gorm:"type:varchar(32);default:''" json:"special_type,omitempty"`
	// YearsRequired is the tenure threshold, meaningful only for
	// special_type=time_in_scouting stages.
	YearsRequired int `gorm:"default:0" json:"years_required,omitempty"`

	IsCapstone bool `gorm:"default:false" json:"is_capstone"`
	Active     bool `gorm:"default:true" json:"active"`

	Timestamps
}

func (b BadgeDefinition) GetID() string { return b.ID }

// BadgeModule: many per badge, each with its own completion rule.
type BadgeModule struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	BadgeID string `gorm:"index;not null" json:"badge_id"`
	Name    string `json:"name"`
	Order   int    `gorm:"column:sort_order;default:0" json:"order"`

	Rule ModuleRule `gorm:"type:varchar(24);not null;default:'all_required'" json:"rule"`
	// RequiredCount is meaningful only for x_of_n_required.
	RequiredCount int `gorm:"default:0" json:"required_count,omitempty"`

	Timestamps
}

func (m BadgeModule) GetID() string { return m.ID }

// BadgeRequirement: smallest unit of badge work.
type BadgeRequirement struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	BadgeID  string `gorm:"index;not null" json:"badge_id"`
	ModuleID string `gorm:"index;not null" json:"module_id"`
	Order    int    `gorm:"column:sort_order;default:0" json:"order"`
	Text     string `gorm:"not null" json:"text"`

	// RequiredCompletions >= 1; "attend 3 times" style requirements use > 1.
	RequiredCompletions int `gorm:"default:1" json:"required_completions"`
	// NightsAwayRequired gates the increment on the member's cumulative
	// nights-away counter at completion time. 0 means no gate.
	NightsAwayRequired int `gorm:"default:0" json:"nights_away_required,omitempty"`

	Timestamps
}

func (r BadgeRequirement) GetID() string { return r.ID }

// TimeBadgeStage pairs a tenure stage with its year threshold; SeedTimeBadges
// in the catalog service turns these into a staged badge family.
type TimeBadgeStage struct {
	Stage int
	Years int
}

var TimeBadgeStages = []TimeBadgeStage{
	{Stage: 1, Years: 1},
	{Stage: 2, Years: 2},
	{Stage: 3, Years: 3},
	{Stage: 4, Years: 4},
	{Stage: 5, Years: 5},
	{Stage: 6, Years: 10},
	{Stage: 7, Years: 15},
}
