package usecase

import (
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

const inactiveStageHint = "This status is inactive"

type StageView struct {
	entity.Stage
	Index     int    `json:"index"`
	Current   bool   `json:"current"`
	Completed bool   `json:"completed"`
	Clickable bool   `json:"clickable"`
	Hint      string `json:"hint,omitempty"`
}

// View is a read-only picture of the status bar for rendering. It shares no
// memory with the controller, so it stays valid after the session moves on.
type View struct {
	LeadID       int                      `json:"lead_id"`
	Progress     entity.LeadProgressState `json:"progress"`
	Phase        PhaseKind                `json:"phase"`
	Transition   *Transition              `json:"transition,omitempty"`
	DemoDraft    *entity.DemoSessionDraft `json:"demo_draft,omitempty"`
	Stages       []StageView              `json:"stages"`
	Users        []entity.UserRef         `json:"users"`
	Timeline     []TimelineEntry          `json:"timeline"`
	Celebrating  bool                     `json:"celebrating"`
	CelebrateFor time.Duration            `json:"celebrate_for_ns,omitempty"`
	Notice       string                   `json:"notice,omitempty"`
}

func (c *ProgressionController) Snapshot() View {
	now := c.now()
	v := View{
		LeadID:       c.lead.LeadID,
		Progress:     c.progress,
		Phase:        c.phase.Kind(),
		Transition:   transitionOf(c.phase).clone(),
		Users:        c.registry.SelectableUsers(),
		Timeline:     c.ledger.Timeline(DefaultPreviewLength),
		Celebrating:  c.celebration.Active(now),
		CelebrateFor: c.celebration.Remaining(now),
		Notice:       c.notice,
	}
	if p, ok := c.phase.(AwaitingDemoInput); ok {
		draft := p.Draft
		draft.Attendees = append([]entity.UserRef(nil), p.Draft.Attendees...)
		draft.Presenters = append([]entity.UserRef(nil), p.Draft.Presenters...)
		v.DemoDraft = &draft
	}

	for i, s := range c.registry.Stages() {
		sv := StageView{
			Stage:     s,
			Index:     i,
			Current:   i == c.progress.CurrentStageIndex,
			Completed: i < c.progress.CurrentStageIndex,
			Clickable: i > c.progress.CurrentStageIndex && !c.progress.Terminal() && s.Active,
		}
		if !s.Active {
			sv.Hint = inactiveStageHint
		} else if r, ok := c.ledger.ForStage(s.ID); ok {
			sv.Hint = r.Text
		}
		v.Stages = append(v.Stages, sv)
	}
	return v
}
