package models

import "time"

// ParentType distinguishes the two attendance-bearing record kinds a badge
// link or attendance row can hang off.
type ParentType string

const (
	ParentProgramme ParentType = "programme"
	ParentEvent     ParentType = "event"
)

// Programme is a single section meeting on the term plan.
type Programme struct {
	ID      string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Section string     `gorm:"index" json:"section"`
	Title   string     `json:"title"`
	Date    *time.Time `json:"date,omitempty"`

	Timestamps
}

func (p Programme) GetID() string { return p.ID }

// Event is a camp, hike or other off-plan activity. Nights carries the
// nights-away quantity awarded to attendees when badge work is marked.
type Event struct {
	ID      string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Section string     `gorm:"index" json:"section"`
	Title   string     `json:"title"`
	Start   *time.Time `json:"start,omitempty"`
	End     *time.Time `json:"end,omitempty"`
	Nights  int        `gorm:"default:0" json:"nights"`

	Timestamps
}

func (e Event) GetID() string { return e.ID }

// Attendance marks a member present at a programme item or event.
type Attendance struct {
	ID         string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MemberID   string     `gorm:"index:idx_attendance_pair,unique;not null" json:"member_id"`
	ParentType ParentType `gorm:"type:varchar(16);index:idx_attendance_pair,unique;not null" json:"parent_type"`
	ParentID   string     `gorm:"index:idx_attendance_pair,unique;not null" json:"parent_id"`
	Present    bool       `gorm:"default:false" json:"present"`

	Timestamps
}

func (a Attendance) GetID() string { return a.ID }

// BadgeLink attaches a badge requirement to a programme item or event: when
// attendance is awarded, every present member gets the linked requirement
// marked complete. CountsAsHikeAway adds one to the member's hike counter the
// first time the pair completes.
type BadgeLink struct {
	ID            string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ParentType    ParentType `gorm:"type:varchar(16);index:idx_link_parent;not null" json:"parent_type"`
	ParentID      string     `gorm:"index:idx_link_parent;not null" json:"parent_id"`
	RequirementID string     `gorm:"index;not null" json:"requirement_id"`

	CountsAsHikeAway bool `gorm:"default:false" json:"counts_as_hike_away"`

	Timestamps
}

func (l BadgeLink) GetID() string { return l.ID }
