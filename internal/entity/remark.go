package entity

import "time"

type Remark struct {
	ID           int       `json:"id"`
	LeadID       int       `json:"lead_id"`
	StageID      int       `json:"stage_id"`
	StatusName   string    `json:"status_name"`
	Text         string    `json:"text"`
	ProjectValue *float64  `json:"project_value,omitempty"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewRemark is a remark about to be written to the ledger.
type NewRemark struct {
	LeadID       int
	StageID      int
	ActorID      int
	Text         string
	ProjectValue *float64
}
