package models

import "time"

// Member is partially owned here: the progression engine mutates the outdoor
// counters and reads the start date and invested flag; everything else belongs
// to the membership CRUD outside this service.
type Member struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Section   string `gorm:"index" json:"section"`
	Active    bool   `gorm:"default:true" json:"active"`
	Invested  bool   `gorm:"default:false" json:"invested"`

	ScoutingStartDate *time.Time `json:"scouting_start_date,omitempty"`

	// Materialized views over activity; TotalNightsAway is derived from
	// NightsAwayLog and periodically reconciled by the counter sync worker.
	TotalHikesAway  int `gorm:"default:0" json:"total_hikes_away"`
	TotalNightsAway int `gorm:"default:0" json:"total_nights_away"`

	Timestamps
}

func (m Member) GetID() string { return m.ID }

// NightsAwayLog is the append-only ledger behind Member.TotalNightsAway.
// At most one entry per (member, event); re-running an awarding batch finds
// the existing entry and skips the append.
type NightsAwayLog struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MemberID string `gorm:"index:idx_member_event,unique;not null" json:"member_id"`
	EventID  string `gorm:"index:idx_member_event,unique;not null" json:"event_id"`
	Nights   int    `gorm:"not null" json:"nights"`

	Date      *time.Time `json:"date,omitempty"`
	CreatedBy string     `json:"created_by,omitempty"`

	Timestamps
}

func (l NightsAwayLog) GetID() string { return l.ID }
