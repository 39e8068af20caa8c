package entity

import (
	"context"
	"time"
)

// TransitionStep names one remote side effect of a stage transition.
type TransitionStep string

const (
	StepAction TransitionStep = "action"
	StepRemark TransitionStep = "remark"
	StepCommit TransitionStep = "commit"
)

type TransitionStepRecord struct {
	TransitionID string         `json:"transition_id"`
	LeadID       int            `json:"lead_id"`
	StageID      int            `json:"stage_id"`
	Step         TransitionStep `json:"step"`
	CompletedAt  time.Time      `json:"completed_at"`
}

// TransitionJournal records remote steps already applied for a transition
// so a retry never repeats them.
type TransitionJournal interface {
	Record(ctx context.Context, rec TransitionStepRecord) error
	Completed(ctx context.Context, transitionID string) (map[TransitionStep]bool, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}
