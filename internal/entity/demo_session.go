package entity

import "time"

type DemoSessionType string

const (
	DemoSessionOnline  DemoSessionType = "online"
	DemoSessionOffline DemoSessionType = "offline"
)

func (t DemoSessionType) Valid() bool {
	return t == DemoSessionOnline || t == DemoSessionOffline
}

// DemoSessionDraft is the uncommitted demo session form. Zero times mean the
// field was left empty.
type DemoSessionDraft struct {
	Type       DemoSessionType `json:"type"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
	Notes      string          `json:"notes"`
	Place      string          `json:"place"`
	Attendees  []UserRef       `json:"attendees"`
	Presenters []UserRef       `json:"presenters"`
}

// NewDemoSessionDraft seeds a fresh draft starting now.
func NewDemoSessionDraft(now time.Time) DemoSessionDraft {
	return DemoSessionDraft{StartTime: now}
}

// DemoSession is a scheduled session as listed by the CRM.
type DemoSession struct {
	ID         int             `json:"id"`
	LeadID     int             `json:"lead_id"`
	Type       DemoSessionType `json:"type"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
	Notes      string          `json:"notes"`
	Place      string          `json:"place"`
	Attendees  []UserRef       `json:"attendees"`
	Presenters []UserRef       `json:"presenters"`
}
